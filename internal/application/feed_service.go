package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"referent/internal/domain/entity"
	"referent/internal/domain/repository"
)

const (
	DefaultFeedLimit       = 5
	DefaultFeedConcurrency = 2
)

// ArticleProcessor is the part of ArticleService the feed runner needs.
type ArticleProcessor interface {
	Process(ctx context.Context, req entity.TransformationRequest) (*entity.GenerationResult, error)
}

// FeedRequest selects which entries of a feed to process.
type FeedRequest struct {
	URL        string
	ActionKind entity.ActionKind
	// Limit is the number of newest entries to process.
	Limit int
	// Since skips entries published at or before it when non-zero.
	Since time.Time
}

// FeedService runs the newest entries of an RSS or Atom feed through the
// article pipeline. Every entry is an independent request.
type FeedService struct {
	feeds       repository.FeedRepository
	processor   ArticleProcessor
	concurrency int
	logger      zerolog.Logger
}

type FeedOption func(*FeedService)

func WithConcurrency(n int) FeedOption {
	return func(s *FeedService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithFeedLogger(logger zerolog.Logger) FeedOption {
	return func(s *FeedService) {
		s.logger = logger
	}
}

func NewFeedService(feeds repository.FeedRepository, processor ArticleProcessor, opts ...FeedOption) *FeedService {
	s := &FeedService{
		feeds:       feeds,
		processor:   processor,
		concurrency: DefaultFeedConcurrency,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessFeed returns one result per selected entry, newest first. Failures
// of single entries are reported in their result; only a feed that cannot be
// read fails the whole call.
func (s *FeedService) ProcessFeed(ctx context.Context, req FeedRequest) ([]*entity.FeedItemResult, error) {
	if req.URL == "" {
		return nil, entity.Errorf(entity.ErrInvalidInput, "feed URL is required")
	}
	if _, err := entity.ParseActionKind(string(req.ActionKind)); err != nil {
		return nil, entity.Errorf(entity.ErrInvalidInput, "actionKind must be one of: %s", entity.ActionKindNames())
	}

	entries, err := s.feeds.Fetch(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed [%s]: %w", req.URL, err)
	}

	selected := selectEntries(entries, req.Since, req.Limit)
	if len(selected) == 0 {
		s.logger.Info().Str("feed", req.URL).Msg("no entries to process")
		return nil, nil
	}

	results := make([]*entity.FeedItemResult, len(selected))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, entry := range selected {
		g.Go(func() error {
			res, err := s.processor.Process(ctx, entity.TransformationRequest{
				URL:        entry.Link,
				ActionKind: req.ActionKind,
			})
			if err != nil {
				s.logger.Warn().Err(err).Str("feed", req.URL).Str("link", entry.Link).Msg("failed to process feed entry")
			}
			results[i] = &entity.FeedItemResult{Entry: entry, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info().Str("feed", req.URL).Int("entries", len(results)).Msg("feed processed")
	return results, nil
}

// selectEntries keeps the newest limit entries published after since.
func selectEntries(entries []*entity.FeedEntry, since time.Time, limit int) []*entity.FeedEntry {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	selected := make([]*entity.FeedEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Link == "" {
			continue
		}
		if !since.IsZero() && !entry.IsNewerThan(since) {
			continue
		}
		selected = append(selected, entry)
	}

	sortEntriesByPublishedDesc(selected)
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

func sortEntriesByPublishedDesc(entries []*entity.FeedEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Published.After(entries[j].Published)
	})
}
