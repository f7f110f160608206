package backend

import (
	"context"

	"github.com/hupe1980/storymesh/core"
)

// Request carries the two inputs of a boundary call: the resolved system
// instructions and the rendered user prompt.
type Request struct {
	System string `json:"system"`
	Prompt string `json:"prompt"`
}

// Result is the structured success payload of a boundary call.
type Result struct {
	Text  string      `json:"text"`
	Usage *core.Usage `json:"usage,omitempty"`
}

// Info contains metadata about a backend implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "anthropic", "openai", "subprocess", "mock"
	// Interruptible reports whether cancelling the Invoke context actively
	// terminates the underlying call (e.g. a subprocess kill) or merely
	// abandons it.
	Interruptible bool `json:"interruptible"`
}

// Backend is the minimal interface the engine needs to drive generation.
// Invoke blocks until the call resolves, the context is cancelled, or the
// backend fails. Implementations must return ctx.Err() (possibly wrapped)
// when cancelled.
type Backend interface {
	Invoke(ctx context.Context, req Request) (*Result, error)

	// Info returns information about the backend implementation.
	Info() Info
}
