// Package llm is the port for language-model calls: narrative prose and
// structured JSON payloads such as parsed intents and GM move fills.
package llm

//go:generate mockgen -destination=mock/mock_client.go -package=llmmock github.com/KirkDiggler/tta-core/internal/clients/llm Client

import (
	"context"
)

// Client defines the interface for language-model interactions
type Client interface {
	// GenerateStructured prompts the model and unmarshals its JSON reply
	// into out. Implementations must return a CodeTimeout error when the
	// context deadline expires so callers can fall back to templates.
	GenerateStructured(ctx context.Context, input *GenerateStructuredInput, out interface{}) error

	// GenerateNarrative prompts the model for prose
	GenerateNarrative(ctx context.Context, input *GenerateNarrativeInput) (*GenerateNarrativeOutput, error)

	// Close releases the underlying connection
	Close() error
}

// GenerateStructuredInput carries the prompt for a JSON-shaped reply
type GenerateStructuredInput struct {
	System string
	Prompt string
}

// GenerateNarrativeInput carries the prompt for prose
type GenerateNarrativeInput struct {
	System string
	Prompt string
}

// GenerateNarrativeOutput carries the generated prose
type GenerateNarrativeOutput struct {
	Text string
}
