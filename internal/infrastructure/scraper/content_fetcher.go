package scraper

import (
	"context"

	"referent/internal/domain/entity"
	"referent/internal/domain/repository"
)

// PageFetcher downloads the raw HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type articleRepository struct {
	fetcher   PageFetcher
	extractor *Extractor
}

// NewArticleRepository wires a page fetcher to the article extractor.
func NewArticleRepository(fetcher PageFetcher) repository.ArticleRepository {
	return &articleRepository{
		fetcher:   fetcher,
		extractor: NewExtractor(),
	}
}

func (r *articleRepository) FetchArticle(ctx context.Context, url string) (*entity.Article, error) {
	html, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return r.extractor.Extract(html), nil
}
