package repository

import (
	"context"

	"referent/internal/domain/entity"
)

type FeedRepository interface {
	Fetch(ctx context.Context, url string) ([]*entity.FeedEntry, error)
}
