package entity

import "time"

type FeedEntry struct {
	Title     string
	Link      string
	Published time.Time
	GUID      string
}

func NewFeedEntry(title, link string, published time.Time, guid string) *FeedEntry {
	return &FeedEntry{
		Title:     title,
		Link:      link,
		Published: published,
		GUID:      guid,
	}
}

func (f *FeedEntry) IsNewerThan(t time.Time) bool {
	return f.Published.After(t)
}

// FeedItemResult is the outcome of running one feed entry through the pipeline.
// Exactly one of Result and Err is set.
type FeedItemResult struct {
	Entry  *FeedEntry
	Result *GenerationResult
	Err    error
}
