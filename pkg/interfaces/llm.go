package interfaces

import "context"

// LLM represents a text generation backend
type LLM interface {
	// Generate returns the text generated for prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// Name returns the name of the LLM provider
	Name() string
}
