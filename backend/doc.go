// Package backend defines the boundary to the opaque external capability
// that actually produces text. The core treats every backend as a black box
// with three possible outcomes: a structured success payload, an error
// termination, or an indefinite hang that must be cut off from outside.
//
// Interruption is signalled through the context passed to Invoke. A backend
// that cannot be interrupted (Info().Interruptible == false) is allowed to
// run to completion after cancellation; the engine discards its result. That
// zombie call is an accepted, documented trade-off - the job's registry entry
// is still cleaned up immediately.
//
// Concrete adapters live in subpackages (anthropic, openai, subprocess); the
// in-package Mock is for tests and examples.
package backend
