package llm

import (
	"context"

	"referent/internal/domain/entity"
	"referent/internal/domain/repository"
)

// noopGenerator stands in when no credential is configured.
type noopGenerator struct{}

func newNoopGenerator() repository.GeneratorRepository {
	return &noopGenerator{}
}

func (g *noopGenerator) Generate(ctx context.Context, prompt entity.PromptSpec) (string, error) {
	return "", nil
}

func (g *noopGenerator) IsEnabled() bool {
	return false
}
