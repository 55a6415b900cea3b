package repository

import (
	"context"
	"fmt"

	"referent/internal/domain/entity"
)

// ArticleRepository fetches a page and extracts its article.
type ArticleRepository interface {
	// FetchArticle returns a *FetchError when the host answers with a
	// non-success status.
	FetchArticle(ctx context.Context, url string) (*entity.Article, error)
}

// FetchError reports a page host that answered with a non-success status.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %s", e.URL, e.Status)
}
