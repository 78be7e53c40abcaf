package adk

import "context"

// Provider is a text-generation backend.
type Provider interface {
	// Generate sends one self-contained prompt and returns the model's text.
	Generate(ctx context.Context, prompt string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
	Close() error
}
