package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/KirkDiggler/tta-core/internal/errors"
)

// GeminiConfig configures the Gemini-backed client
type GeminiConfig struct {
	APIKey string
	// Model defaults to gemini-2.5-flash
	Model string
}

// Validate validates the GeminiConfig.
func (cfg *GeminiConfig) Validate() error {
	if cfg == nil {
		return errors.BadInput("config cannot be nil")
	}
	if cfg.APIKey == "" {
		return errors.BadInput("API key cannot be empty")
	}
	return nil
}

type geminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini-backed Client
func NewGemini(ctx context.Context, cfg *GeminiConfig) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	return &geminiClient{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

func (g *geminiClient) generate(ctx context.Context, system, prompt string) (string, error) {
	model := g.model
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.Timeout("model call timed out")
		}
		return "", errors.Wrapf(err, "model call failed")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.RepoError("model returned no content")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.RepoError("model returned a non-text part")
	}
	return string(text), nil
}

// stripFences removes a markdown code fence wrapping a JSON reply
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func (g *geminiClient) GenerateStructured(ctx context.Context, input *GenerateStructuredInput, out interface{}) error {
	if input == nil || input.Prompt == "" {
		return errors.BadInput("prompt is required")
	}

	text, err := g.generate(ctx, input.System, input.Prompt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFences(text)), out); err != nil {
		return errors.Wrapf(err, "failed to parse model reply as JSON")
	}
	return nil
}

func (g *geminiClient) GenerateNarrative(ctx context.Context, input *GenerateNarrativeInput) (*GenerateNarrativeOutput, error) {
	if input == nil || input.Prompt == "" {
		return nil, errors.BadInput("prompt is required")
	}

	text, err := g.generate(ctx, input.System, input.Prompt)
	if err != nil {
		return nil, err
	}
	return &GenerateNarrativeOutput{Text: strings.TrimSpace(text)}, nil
}

func (g *geminiClient) Close() error {
	return g.client.Close()
}
