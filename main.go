package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"referent/internal/application"
	"referent/internal/domain/entity"
	"referent/internal/infrastructure/html"
	"referent/internal/infrastructure/llm"
	"referent/internal/infrastructure/rss"
	"referent/internal/infrastructure/scraper"
	"referent/internal/interfaces/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", entity.ErrorMessage(err))
		os.Exit(1)
	}
}

// run parses args, wires the pipeline from the environment and executes the
// selected command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("referent"),
		kong.Description("Extract articles from web pages and turn them into summaries, theses or Telegram posts."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'referent --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	if err := wire(ctx, deps, cfg, logger); err != nil {
		return err
	}

	return kongCtx.Run(deps)
}

func newLogger(cfg *config.Config, w io.Writer) (zerolog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return zerolog.Nop(), err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	out := w
	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// wire builds the pipeline described by cfg into deps.
func wire(ctx context.Context, deps *Dependencies, cfg *config.Config, logger zerolog.Logger) error {
	generator, err := llm.NewGeneratorRepository(ctx, cfg.LLMConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize %s generator: %w", cfg.LLMProvider, err)
	}
	if !generator.IsEnabled() {
		logger.Warn().Msg("no generation credential configured (OPENROUTER_API_KEY); only parse will succeed")
	}

	prompts, err := application.DefaultPromptCatalog()
	if err != nil {
		return err
	}

	articles := scraper.NewArticleRepository(html.NewFetcher(cfg.FetchTimeout))
	service := application.NewArticleService(articles, generator, prompts,
		application.WithGenerationTimeout(cfg.GenerationTimeout),
		application.WithLogger(logger),
	)

	deps.Config = cfg
	deps.Logger = logger
	deps.Articles = service
	deps.NewFeedService = func(concurrency int) FeedProcessor {
		return application.NewFeedService(
			rss.NewFeedRepository(&http.Client{Timeout: cfg.FetchTimeout}),
			service,
			application.WithConcurrency(concurrency),
			application.WithFeedLogger(logger),
		)
	}
	return nil
}
