package llm

import (
	"context"
	"fmt"
)

// LLMClient sends one prompt to a text generation service. Implementations
// do not retry.
type LLMClient interface {
	Generate(ctx context.Context, instructions, input string) (string, error)
}

// GenerationError wraps any provider failure, transient or permanent.
type GenerationError struct {
	Provider string
	Model    string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
