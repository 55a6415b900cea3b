package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/auth/bearer"

	"referent/internal/domain/entity"
	"referent/internal/domain/repository"
)

type bedrockGenerator struct {
	client    *bedrockruntime.Client
	modelID   string
	maxTokens int32
}

const bedrockDefaultMaxTokens = int32(2048)

func newBedrockGenerator(ctx context.Context, cfg Config) (repository.GeneratorRepository, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("bedrock model ID is required")
	}
	bearerToken := cfg.APIKey
	if bearerToken == "" {
		return nil, fmt.Errorf("bedrock bearer token is required (set LLM_API_KEY)")
	}

	region := cfg.Region
	if region == "" {
		return nil, fmt.Errorf("bedrock region is required (set LLM_REGION)")
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	sdkConfig.BearerAuthTokenProvider = bearer.NewTokenCache(bearer.StaticTokenProvider{
		Token: bearer.Token{Value: bearerToken},
	})
	sdkConfig.AuthSchemePreference = []string{"httpBearerAuth"}

	return &bedrockGenerator{
		client:    bedrockruntime.NewFromConfig(sdkConfig),
		modelID:   cfg.Model,
		maxTokens: bedrockDefaultMaxTokens,
	}, nil
}

func (g *bedrockGenerator) Generate(ctx context.Context, prompt entity.PromptSpec) (string, error) {
	resp, err := g.client.Converse(ctx, g.buildConverseInput(prompt))
	if err != nil {
		return "", bedrockError(err)
	}
	return g.parseResponse(resp)
}

func (g *bedrockGenerator) IsEnabled() bool {
	return true
}

func (g *bedrockGenerator) buildConverseInput(prompt entity.PromptSpec) *bedrockruntime.ConverseInput {
	return &bedrockruntime.ConverseInput{
		ModelId: aws.String(g.modelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt.UserInstruction},
				},
			},
		},
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: prompt.SystemInstruction},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(g.maxTokens),
			Temperature: aws.Float32(prompt.Temperature),
		},
	}
}

func (g *bedrockGenerator) parseResponse(resp *bedrockruntime.ConverseOutput) (string, error) {
	messageOutput, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("unexpected bedrock response output type %T: %w", resp.Output, repository.ErrNoCompletion)
	}

	var builder strings.Builder
	for _, block := range messageOutput.Value.Content {
		textBlock, ok := block.(*types.ContentBlockMemberText)
		if !ok {
			continue
		}
		builder.WriteString(textBlock.Value)
	}

	if builder.Len() == 0 {
		return "", repository.ErrNoCompletion
	}
	return builder.String(), nil
}

// bedrockError extracts the HTTP status from smithy response errors.
func bedrockError(err error) error {
	var statusErr interface{ HTTPStatusCode() int }
	if !errors.As(err, &statusErr) || statusErr.HTTPStatusCode() == 0 {
		return fmt.Errorf("failed to invoke bedrock model: %w", err)
	}

	message := err.Error()
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		message = apiErr.ErrorMessage()
	}

	return &repository.GenerationError{
		StatusCode: statusErr.HTTPStatusCode(),
		Message:    message,
		Err:        err,
	}
}
