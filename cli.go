package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"referent/internal/application"
	"referent/internal/domain/entity"
	"referent/internal/interfaces/config"
	"referent/internal/interfaces/httpapi"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve     ServeCmd     `cmd:"" help:"Serve the JSON HTTP API."`
	Parse     ParseCmd     `cmd:"" help:"Extract title, date and content of an article."`
	Process   ProcessCmd   `cmd:"" help:"Summarize an article, list its theses or write a Telegram post."`
	Translate TranslateCmd `cmd:"" help:"Translate an article into Russian."`
	Feed      FeedCmd      `cmd:"" help:"Process the newest entries of RSS or Atom feeds."`
}

// FeedProcessor runs feed entries through the pipeline.
type FeedProcessor interface {
	ProcessFeed(ctx context.Context, req application.FeedRequest) ([]*entity.FeedItemResult, error)
}

// Dependencies are bound into every command's Run method.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	Config   *config.Config
	Logger   zerolog.Logger
	Articles httpapi.ArticleService

	// NewFeedService builds a feed runner with the given concurrency.
	NewFeedService func(concurrency int) FeedProcessor
}

type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to LISTEN_ADDR."`
}

func (c *ServeCmd) Run(deps *Dependencies) error {
	addr := c.Addr
	if addr == "" {
		addr = deps.Config.ListenAddr
	}

	handler := httpapi.NewHandler(deps.Articles, httpapi.Options{
		RateLimitRPS:   deps.Config.RateLimitRPS,
		RateLimitBurst: deps.Config.RateLimitBurst,
		TrustProxy:     deps.Config.TrustProxy,
		Logger:         deps.Logger,
	})
	return httpapi.Serve(deps.Ctx, addr, handler, deps.Logger)
}

type ParseCmd struct {
	URL  string `arg:"" help:"Article URL."`
	JSON bool   `help:"Print JSON instead of text."`
}

func (c *ParseCmd) Run(deps *Dependencies) error {
	article, err := deps.Articles.Parse(deps.Ctx, c.URL)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(deps.Stdout, article)
	}

	fmt.Fprintf(deps.Stdout, "Title: %s\nDate: %s\n\n%s\n", article.Title, article.Date, article.Content)
	return nil
}

type ProcessCmd struct {
	URL    string `arg:"" help:"Article URL."`
	Action string `short:"a" default:"summary" enum:"summary,theses,telegram" help:"Transformation: summary, theses or telegram."`
	JSON   bool   `help:"Print JSON instead of text."`
}

func (c *ProcessCmd) Run(deps *Dependencies) error {
	result, err := deps.Articles.Process(deps.Ctx, entity.TransformationRequest{
		URL:        c.URL,
		ActionKind: entity.ActionKind(c.Action),
	})
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(deps.Stdout, result)
	}

	fmt.Fprintln(deps.Stdout, result.Result)
	return nil
}

type TranslateCmd struct {
	URL  string `arg:"" help:"Article URL."`
	JSON bool   `help:"Print JSON instead of text."`
}

func (c *TranslateCmd) Run(deps *Dependencies) error {
	result, err := deps.Articles.Translate(deps.Ctx, c.URL)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(deps.Stdout, result)
	}

	fmt.Fprintln(deps.Stdout, result.Translation)
	return nil
}

type FeedCmd struct {
	URLs        []string      `arg:"" optional:"" name:"feed-url" help:"Feed URLs. Defaults to FEED_URL or FEED_URL_1, FEED_URL_2, ..."`
	Action      string        `short:"a" default:"summary" enum:"summary,theses,telegram" help:"Transformation applied to every entry."`
	Limit       int           `default:"5" help:"Newest entries to process per feed."`
	Since       time.Duration `help:"Only process entries published within this duration."`
	Concurrency int           `default:"2" help:"Entries processed in parallel."`
	JSON        bool          `help:"Print JSON instead of text."`
}

func (c *FeedCmd) Run(deps *Dependencies) error {
	urls := c.URLs
	if len(urls) == 0 {
		urls = deps.Config.FeedURLs
	}
	if len(urls) == 0 {
		return fmt.Errorf("no feed URLs given. Pass them as arguments or set FEED_URL")
	}

	var since time.Time
	if c.Since > 0 {
		since = time.Now().Add(-c.Since)
	}

	feeds := deps.NewFeedService(c.Concurrency)
	var all []*entity.FeedItemResult
	var failed int
	for _, url := range urls {
		results, err := feeds.ProcessFeed(deps.Ctx, application.FeedRequest{
			URL:        url,
			ActionKind: entity.ActionKind(c.Action),
			Limit:      c.Limit,
			Since:      since,
		})
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", entity.ErrorMessage(err))
			failed++
			continue
		}
		all = append(all, results...)
	}

	if c.JSON {
		if err := printJSON(deps.Stdout, feedOutput(all)); err != nil {
			return err
		}
	} else {
		for _, r := range all {
			fmt.Fprintf(deps.Stdout, "## %s\n%s\n\n", r.Entry.Title, r.Entry.Link)
			if r.Err != nil {
				fmt.Fprintf(deps.Stdout, "error: %s\n\n", entity.ErrorMessage(r.Err))
				continue
			}
			fmt.Fprintf(deps.Stdout, "%s\n\n", r.Result.Result)
		}
	}

	if failed == len(urls) {
		return fmt.Errorf("all %d feeds failed", failed)
	}
	return nil
}

type feedItemOutput struct {
	Title     string                   `json:"title"`
	Link      string                   `json:"link"`
	Published time.Time                `json:"published"`
	Result    *entity.GenerationResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

func feedOutput(results []*entity.FeedItemResult) []feedItemOutput {
	out := make([]feedItemOutput, 0, len(results))
	for _, r := range results {
		item := feedItemOutput{
			Title:     r.Entry.Title,
			Link:      r.Entry.Link,
			Published: r.Entry.Published,
			Result:    r.Result,
		}
		if r.Err != nil {
			item.Error = entity.ErrorMessage(r.Err)
		}
		out = append(out, item)
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
