package html

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	"referent/internal/domain/repository"
)

const (
	maxHTMLBytes = int64(5 * 1024 * 1024)

	// DefaultUserAgent looks like a desktop browser; many sites refuse bare Go clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
	}
}

// Fetch downloads url and returns its body decoded to UTF-8.
// A non-2xx answer is reported as *repository.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &repository.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxHTMLBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to detect charset: %w", err)
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(b), nil
}
