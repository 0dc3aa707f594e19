package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KirkDiggler/tta-core/internal/errors"
)

// Static is a canned Client for tests and offline play. Structured replies
// are served from a queue; narrative replies echo a fixed string.
type Static struct {
	mu         sync.Mutex
	structured []string
	narrative  string
	calls      int
	err        error
}

// StaticConfig configures the canned client
type StaticConfig struct {
	// StructuredReplies are JSON documents returned in order; the last one
	// repeats once the queue is exhausted
	StructuredReplies []string
	// Narrative is returned by every GenerateNarrative call
	Narrative string
	// Err, when set, is returned by every call
	Err error
}

// NewStatic creates a canned client
func NewStatic(cfg *StaticConfig) *Static {
	if cfg == nil {
		cfg = &StaticConfig{}
	}
	return &Static{
		structured: cfg.StructuredReplies,
		narrative:  cfg.Narrative,
		err:        cfg.Err,
	}
}

// GenerateStructured pops the next canned JSON reply into out
func (s *Static) GenerateStructured(ctx context.Context, input *GenerateStructuredInput, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return errors.Timeout("model call cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if len(s.structured) == 0 {
		return errors.Timeout("no canned reply available")
	}

	idx := s.calls
	if idx >= len(s.structured) {
		idx = len(s.structured) - 1
	}
	s.calls++

	if err := json.Unmarshal([]byte(s.structured[idx]), out); err != nil {
		return errors.Wrapf(err, "failed to unmarshal canned reply")
	}
	return nil
}

// GenerateNarrative returns the fixed narrative string
func (s *Static) GenerateNarrative(ctx context.Context, input *GenerateNarrativeInput) (*GenerateNarrativeOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Timeout("model call cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return &GenerateNarrativeOutput{Text: s.narrative}, nil
}

// Close is a no-op
func (s *Static) Close() error { return nil }

// Calls reports how many structured calls have been made
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
