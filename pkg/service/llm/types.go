package llm

import (
	"context"
)

// Gateway is the uniform request/response contract over pluggable
// language-model providers. Callers never see provider-specific request or
// response shapes.
type Gateway interface {
	// Generate issues one completion request and returns the raw text
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)

	// GenerateJSON issues one completion request expecting structured
	// output. Markdown code fences are stripped from the response so
	// callers can parse it directly.
	GenerateJSON(ctx context.Context, prompt, systemPrompt string) (string, error)

	// Embed converts text into a fixed-length vector. The dimensionality
	// is constant for the lifetime of the gateway.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ContextWindow returns the approximate context budget of the resolved
	// model in characters, used to size chunks.
	ContextWindow() int

	// Model returns the resolved model identifier
	Model() string
}
