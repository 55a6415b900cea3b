package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"referent/internal/infrastructure/llm"
)

type Config struct {
	// APIKey is the generation service credential. OPENROUTER_API_KEY wins
	// over LLM_API_KEY. Leaving both empty is not a load error.
	APIKey string `envconfig:"OPENROUTER_API_KEY"`

	LLMAPIKey   string `envconfig:"LLM_API_KEY"`
	LLMProvider string `envconfig:"LLM_PROVIDER" default:"openrouter"`
	LLMModel    string `envconfig:"LLM_MODEL"`
	LLMBaseURL  string `envconfig:"LLM_BASE_URL"`
	LLMRegion   string `envconfig:"LLM_REGION"`
	LLMReferer  string `envconfig:"LLM_REFERER"`
	LLMAppTitle string `envconfig:"LLM_APP_TITLE" default:"Referent AI Processor"`

	GenerationTimeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"120s"`
	FetchTimeout      time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`

	ListenAddr     string  `envconfig:"LISTEN_ADDR" default:":8080"`
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"1"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"5"`
	TrustProxy     bool    `envconfig:"TRUST_PROXY" default:"false"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	// FeedURLs are processed by the feed command when none are given on the
	// command line.
	FeedURLs []string `envconfig:"FEED_URL"`
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		cfg.APIKey = cfg.LLMAPIKey
	}

	if urls := loadFeedURLs(); len(urls) > 0 {
		cfg.FeedURLs = urls
	}

	if cfg.GenerationTimeout <= 0 {
		return nil, fmt.Errorf("GENERATION_TIMEOUT must be positive, got %s", cfg.GenerationTimeout)
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", cfg.FetchTimeout)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be console or json, got %q", cfg.LogFormat)
	}

	return &cfg, nil
}

// loadFeedURLs reads FEED_URL_1, FEED_URL_2, ... until the first gap.
func loadFeedURLs() []string {
	var urls []string

	for i := 1; ; i++ {
		url := strings.TrimSpace(os.Getenv(fmt.Sprintf("FEED_URL_%d", i)))
		if url == "" {
			break
		}
		urls = append(urls, url)
	}

	return urls
}

// LLMConfig returns the generator settings. OpenRouter defaults are filled
// in by the llm package.
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider: c.LLMProvider,
		APIKey:   c.APIKey,
		Model:    c.LLMModel,
		BaseURL:  c.LLMBaseURL,
		Region:   c.LLMRegion,
		Referer:  c.LLMReferer,
		AppTitle: c.LLMAppTitle,
	}
}

func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
