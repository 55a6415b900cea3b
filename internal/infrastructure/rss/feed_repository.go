package rss

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"referent/internal/domain/entity"
	"referent/internal/domain/repository"
	"referent/internal/infrastructure/html"
)

type feedRepository struct {
	parser *gofeed.Parser
}

// NewFeedRepository reads RSS and Atom feeds with client. A nil client uses
// http.DefaultClient.
func NewFeedRepository(client *http.Client) repository.FeedRepository {
	parser := gofeed.NewParser()
	parser.UserAgent = html.DefaultUserAgent
	if client != nil {
		parser.Client = client
	}
	return &feedRepository{parser: parser}
}

func (r *feedRepository) Fetch(ctx context.Context, url string) ([]*entity.FeedEntry, error) {
	feed, err := r.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]*entity.FeedEntry, 0, len(feed.Items))

	for _, item := range feed.Items {
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published == nil {
			continue
		}

		link := strings.TrimSpace(item.Link)
		guid := item.GUID
		if guid == "" {
			guid = link
		}

		entries = append(entries, entity.NewFeedEntry(
			strings.TrimSpace(item.Title),
			link,
			*published,
			guid,
		))
	}

	return entries, nil
}
