package router

import (
	"strings"
	"sync"
)

// DefaultTarget is the agent every unknown or empty target resolves to.
const DefaultTarget = "writer"

// Descriptor bundles everything the engine needs to drive a generation for
// one logical agent: its name, system instructions and declared capabilities.
type Descriptor struct {
	Name         string
	Instruction  Instruction
	Capabilities []string
}

// Router resolves agent targets to descriptors. The zero value is not usable;
// construct with New. Safe for concurrent use.
type Router struct {
	mu    sync.RWMutex
	table map[string]Descriptor
}

// New creates a Router pre-populated with the built-in agent table. Passing
// functional options allows replacing or extending entries before use.
func New(optFns ...func(r *Router)) *Router {
	r := &Router{table: make(map[string]Descriptor, len(builtins))}
	for _, d := range builtins {
		r.table[d.Name] = d
	}
	for _, fn := range optFns {
		fn(r)
	}
	return r
}

// Register adds or replaces a descriptor keyed by its name.
func (r *Router) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table[d.Name] = d
}

// Resolve maps an agent target to its descriptor. It is a total function:
// unknown names, the empty string and arbitrary garbage all fall back to the
// default writer descriptor. Resolve never errors.
func (r *Router) Resolve(agentTarget string) Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.table[strings.ToLower(strings.TrimSpace(agentTarget))]; ok {
		return d
	}
	return r.table[DefaultTarget]
}

// Targets returns the sorted-insensitive list of registered target names.
func (r *Router) Targets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.table))
	for name := range r.table {
		names = append(names, name)
	}
	return names
}

// builtins is the static default table. Instructions here are deliberately
// terse; applications register richer descriptors at wiring time.
var builtins = []Descriptor{
	{
		Name: "writer",
		Instruction: NewInstructionFromText(
			"You are a novelist's drafting partner. Write vivid, grounded prose " +
				"that continues the story as directed, staying strictly inside the " +
				"point-of-view character's knowledge."),
		Capabilities: []string{"draft-prose", "continue-scene", "revise-scene"},
	},
	{
		Name: "plot",
		Instruction: NewInstructionFromText(
			"You are a story architect. Propose plot developments, outline " +
				"chapters and surface neglected subplot threads."),
		Capabilities: []string{"outline", "plot-analysis", "subplot-tracking"},
	},
	{
		Name: "character",
		Instruction: NewInstructionFromText(
			"You are a character consultant. Keep voices distinct and reactions " +
				"consistent with each character's knowledge and goals."),
		Capabilities: []string{"character-voice", "consistency-check"},
	},
	{
		Name: "editor",
		Instruction: NewInstructionFromText(
			"You are a line editor. Tighten prose, fix continuity slips and " +
				"flag pacing problems without changing the author's intent."),
		Capabilities: []string{"line-edit", "continuity-check"},
	},
	{
		Name: "market",
		Instruction: NewInstructionFromText(
			"You are a market analyst for commercial fiction. Assess hooks, " +
				"comparables and genre expectations."),
		Capabilities: []string{"market-analysis", "comp-titles"},
	},
}
