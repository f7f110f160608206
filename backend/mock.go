package backend

import (
	"context"
	"strings"
	"time"

	"github.com/hupe1980/storymesh/core"
)

// Mock is a lightweight in-memory Backend useful for tests & examples. It
// returns canned completions keyed by prompt, falling back to a generated
// echo, and honors context cancellation during its optional simulated
// latency.
type Mock struct {
	info      Info
	latency   time.Duration
	responses map[string]string
}

// NewMock constructs a Mock backend.
func NewMock(name string) *Mock {
	return &Mock{
		info:      Info{Name: name, Provider: "mock", Interruptible: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *Mock) AddResponse(prompt, response string) { m.responses[prompt] = response }

// SetLatency makes Invoke sleep before answering, to exercise cancellation
// races in tests.
func (m *Mock) SetLatency(d time.Duration) { m.latency = d }

// Invoke implements Backend.
func (m *Mock) Invoke(ctx context.Context, req Request) (*Result, error) {
	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	text, ok := m.responses[req.Prompt]
	if !ok {
		text = "Mock continuation of: " + firstLine(req.Prompt)
	}

	promptTokens := len(strings.Fields(req.System)) + len(strings.Fields(req.Prompt))
	completionTokens := len(strings.Fields(text))

	return &Result{
		Text: text,
		Usage: &core.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}, nil
}

// Info implements Backend.
func (m *Mock) Info() Info { return m.info }

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
