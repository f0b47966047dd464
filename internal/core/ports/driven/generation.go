package driven

import (
	"context"
)

// GenerationService produces an answer from an assembled prompt.
// The model is a black box; failures after retries surface
// domain.ErrGenerationUnavailable.
type GenerationService interface {
	// Generate produces a text completion for the prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the generation service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the generation service
	Close() error
}
