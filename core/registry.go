package core

import "time"

// Job describes one in-flight generation tracked by a Registry. An id present
// in the registry denotes an in-flight job; absence denotes either "never
// started" or "already finished" - callers must not distinguish the two.
type Job struct {
	ID        string
	Agent     string
	Action    string
	StartedAt time.Time
}

// Registry tracks in-flight generation jobs and their cancellation flags.
//
// Contract:
//   - Register inserts the job with cancelled=false and fails loudly on a
//     duplicate id.
//   - Cancel flips the flag to true; the flag is monotonic and never reverts.
//     Cancelling an absent or already-finished id is a harmless no-op.
//   - IsCancelled returns false for absent ids, never an error.
//   - Done returns a channel closed on the first Cancel for the id, allowing
//     cancellation to be pushed to a watcher instead of polled. For absent
//     ids it returns nil (a channel that never fires).
//   - Cleanup removes the entry and is idempotent.
//
// No operation blocks. Implementations must be safe under concurrent access
// from multiple in-flight jobs and from asynchronous cancellation triggers,
// and must make Cancel and Cleanup mutually exclusive for the same id.
type Registry interface {
	Register(job Job) error
	Cancel(id string)
	IsCancelled(id string) bool
	Done(id string) <-chan struct{}
	Cleanup(id string)
	Active() []Job
}
