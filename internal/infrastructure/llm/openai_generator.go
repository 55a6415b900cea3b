package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"referent/internal/domain/entity"
	"referent/internal/domain/repository"
)

// openAIGenerator talks to any OpenAI-compatible chat completion API,
// OpenRouter included.
type openAIGenerator struct {
	client *openai.Client
	model  string
}

func newOpenAIGenerator(cfg Config) (repository.GeneratorRepository, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	headers := map[string]string{}
	if cfg.Referer != "" {
		headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.AppTitle != "" {
		headers["X-Title"] = cfg.AppTitle
	}
	clientCfg.HTTPClient = withHeaders(base, headers)

	return &openAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt entity.PromptSpec) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt.UserInstruction},
		},
		Temperature: prompt.Temperature,
	})
	if err != nil {
		return "", openAIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", repository.ErrNoCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

func (g *openAIGenerator) IsEnabled() bool {
	return true
}

// openAIError lifts the HTTP status out of go-openai errors.
func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &repository.GenerationError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &repository.GenerationError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    http.StatusText(reqErr.HTTPStatusCode),
			Err:        err,
		}
	}

	return fmt.Errorf("failed to call chat completion API: %w", err)
}

// withHeaders returns a copy of client that stamps headers on every request.
func withHeaders(client *http.Client, headers map[string]string) *http.Client {
	if len(headers) == 0 {
		return client
	}
	next := client.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	c := *client
	c.Transport = &headerTransport{next: next, headers: headers}
	return &c
}

type headerTransport struct {
	next    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.next.RoundTrip(req)
}
