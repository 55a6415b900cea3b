package repository

import (
	"context"
	"errors"
	"fmt"

	"referent/internal/domain/entity"
)

// GeneratorRepository calls an external text-generation service.
type GeneratorRepository interface {
	// Generate returns the raw completion text. Failures reported by the
	// service carry a *GenerationError; a response without any completion
	// returns ErrNoCompletion.
	Generate(ctx context.Context, prompt entity.PromptSpec) (string, error)

	// IsEnabled reports whether a credential is configured.
	IsEnabled() bool
}

// ErrNoCompletion means the service answered without completion text.
var ErrNoCompletion = errors.New("no completion in response")

// GenerationError is a non-success answer from the generation service.
type GenerationError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GenerationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generation service returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("generation service returned status %d", e.StatusCode)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
