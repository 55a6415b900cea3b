// Package httpapi serves the article pipeline over JSON HTTP endpoints.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxy rate limits by X-Forwarded-For instead of the peer address.
	TrustProxy     bool
	Logger         zerolog.Logger
}

// NewHandler routes the API. Only /api endpoints are rate limited.
func NewHandler(service ArticleService, opts Options) http.Handler {
	h := &handler{service: service}
	limited := newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, opts.TrustProxy).middleware

	mux := http.NewServeMux()
	mux.Handle("POST /api/parse", limited(http.HandlerFunc(h.parse)))
	mux.Handle("POST /api/ai-process", limited(http.HandlerFunc(h.process)))
	mux.Handle("POST /api/translate", limited(http.HandlerFunc(h.translate)))
	mux.HandleFunc("GET /health", health)

	return requestLogger(opts.Logger, mux)
}

// Serve runs the server on addr until ctx is done, then shuts it down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	logger.Info().Msg("HTTP server stopped")
	return nil
}
