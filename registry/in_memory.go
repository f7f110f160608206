package registry

import (
	"fmt"
	"sync"

	"github.com/hupe1980/storymesh/core"
)

// entry tracks one in-flight job. The done channel is closed exactly once, on
// the first Cancel, so watchers receive cancellation as a pushed signal
// instead of polling the flag.
type entry struct {
	job       core.Job
	cancelled bool
	done      chan struct{}
}

// InMemory is a mutex-guarded core.Registry. A single mutex covers the map
// and every entry, which also makes Cancel and Cleanup mutually exclusive for
// the same id. No operation blocks while holding the lock.
type InMemory struct {
	mu   sync.Mutex
	jobs map[string]*entry
}

// NewInMemory creates an empty registry.
func NewInMemory() *InMemory {
	return &InMemory{jobs: make(map[string]*entry)}
}

// Register inserts the job with cancelled=false. Registering an id that is
// already in flight fails loudly rather than silently replacing the entry.
func (r *InMemory) Register(job core.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("register %s: %w", job.ID, core.ErrDuplicateGeneration)
	}

	r.jobs[job.ID] = &entry{job: job, done: make(chan struct{})}

	return nil
}

// Cancel sets the cancelled flag and closes the done channel. The flag is
// monotonic: once observed true it is never observed false again for that id.
// Cancelling an absent or already-finished id is a harmless no-op.
func (r *InMemory) Cancel(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok || e.cancelled {
		return
	}
	e.cancelled = true
	close(e.done)
}

// IsCancelled returns the current flag, or false if the id is absent.
func (r *InMemory) IsCancelled(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	return ok && e.cancelled
}

// Done returns the channel closed on the first Cancel for the id. For an
// absent id it returns nil, a channel that never fires, which is the correct
// behavior for a job that can no longer be cancelled.
func (r *InMemory) Done(id string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok {
		return nil
	}
	return e.done
}

// Cleanup removes the entry. Idempotent; cleaning up an absent id does
// nothing.
func (r *InMemory) Cleanup(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.jobs, id)
}

// Active returns a snapshot of the jobs currently in flight, in unspecified
// order. Intended for operator introspection.
func (r *InMemory) Active() []core.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := make([]core.Job, 0, len(r.jobs))
	for _, e := range r.jobs {
		jobs = append(jobs, e.job)
	}
	return jobs
}
