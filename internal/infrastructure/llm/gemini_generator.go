package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"referent/internal/domain/entity"
	"referent/internal/domain/repository"
)

// geminiGenerator uses the Google Gemini API.
type geminiGenerator struct {
	client *genai.Client
	model  string
}

func newGeminiGenerator(ctx context.Context, cfg Config) (repository.GeneratorRepository, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiGenerator{client: client, model: model}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt entity.PromptSpec) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt.UserInstruction}},
		}},
		buildGeminiConfig(prompt),
	)
	if err != nil {
		return "", geminiError(err)
	}
	if result == nil {
		return "", repository.ErrNoCompletion
	}

	text := result.Text()
	if text == "" {
		return "", repository.ErrNoCompletion
	}
	return text, nil
}

func (g *geminiGenerator) IsEnabled() bool {
	return true
}

func buildGeminiConfig(prompt entity.PromptSpec) *genai.GenerateContentConfig {
	temp := prompt.Temperature
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: prompt.SystemInstruction}},
		},
		Temperature: &temp,
	}
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return &repository.GenerationError{
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	return fmt.Errorf("failed to call Gemini API: %w", err)
}
