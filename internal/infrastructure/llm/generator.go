package llm

import (
	"context"
	"fmt"
	"net/http"

	"referent/internal/domain/repository"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderBedrock    = "bedrock"
	ProviderNoop       = "noop"

	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "deepseek/deepseek-chat"
	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultAppTitle          = "Referent AI Processor"
)

// Config selects and configures the text-generation backend.
type Config struct {
	Provider string // "openrouter" (default), "openai", "gemini", "bedrock" or "noop"
	APIKey   string
	Model    string
	BaseURL  string // OpenAI-compatible endpoint
	Region   string // bedrock only

	// Referer and AppTitle identify the application to OpenRouter.
	Referer  string
	AppTitle string

	// HTTPClient overrides the transport for OpenAI-compatible providers.
	HTTPClient *http.Client
}

// NewGeneratorRepository builds the backend named by cfg.Provider.
// Without an API key the noop generator is returned so that callers can
// report the missing credential per request.
func NewGeneratorRepository(ctx context.Context, cfg Config) (repository.GeneratorRepository, error) {
	if cfg.Provider == ProviderNoop || cfg.APIKey == "" {
		return newNoopGenerator(), nil
	}

	switch cfg.Provider {
	case ProviderOpenRouter, "":
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultOpenRouterBaseURL
		}
		if cfg.Model == "" {
			cfg.Model = DefaultOpenRouterModel
		}
		if cfg.AppTitle == "" {
			cfg.AppTitle = DefaultAppTitle
		}
		return newOpenAIGenerator(cfg)
	case ProviderOpenAI:
		return newOpenAIGenerator(cfg)
	case ProviderGemini:
		return newGeminiGenerator(ctx, cfg)
	case ProviderBedrock:
		return newBedrockGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
