package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/storymesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ core.Registry = (*InMemory)(nil)

func newJob(id string) core.Job {
	return core.Job{ID: id, Agent: "writer", Action: "continue-writing", StartedAt: time.Now()}
}

func TestInMemory_RegisterDuplicate(t *testing.T) {
	r := NewInMemory()

	require.NoError(t, r.Register(newJob("gen-1")))
	err := r.Register(newJob("gen-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDuplicateGeneration)

	// The original entry is untouched.
	assert.False(t, r.IsCancelled("gen-1"))
	assert.Len(t, r.Active(), 1)
}

func TestInMemory_CancelIsIdempotent(t *testing.T) {
	r := NewInMemory()
	require.NoError(t, r.Register(newJob("gen-1")))

	r.Cancel("gen-1")
	assert.True(t, r.IsCancelled("gen-1"))

	// Second cancel changes nothing and must not panic (the done channel is
	// closed exactly once).
	r.Cancel("gen-1")
	assert.True(t, r.IsCancelled("gen-1"))

	// Cancelling an absent id is a harmless no-op.
	r.Cancel("never-registered")

	// Cancelling after cleanup is also a no-op.
	r.Cleanup("gen-1")
	r.Cancel("gen-1")
	assert.False(t, r.IsCancelled("gen-1"))
}

func TestInMemory_DoneSignalsCancellation(t *testing.T) {
	r := NewInMemory()
	require.NoError(t, r.Register(newJob("gen-1")))

	done := r.Done("gen-1")
	require.NotNil(t, done)

	select {
	case <-done:
		t.Fatal("done fired before cancel")
	default:
	}

	r.Cancel("gen-1")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("done did not fire after cancel")
	}
}

func TestInMemory_DoneForAbsentIDNeverFires(t *testing.T) {
	r := NewInMemory()

	done := r.Done("unknown")
	assert.Nil(t, done)

	// A nil channel blocks forever in a select, which is the intended
	// semantics for a job that can no longer be cancelled.
}

func TestInMemory_CleanupIdempotent(t *testing.T) {
	r := NewInMemory()
	require.NoError(t, r.Register(newJob("gen-1")))

	r.Cleanup("gen-1")
	r.Cleanup("gen-1")

	assert.False(t, r.IsCancelled("gen-1"))
	assert.Empty(t, r.Active())

	// The id can be reused after cleanup.
	require.NoError(t, r.Register(newJob("gen-1")))
}

func TestInMemory_ConcurrentCancelAndCleanup(t *testing.T) {
	r := NewInMemory()

	const jobs = 64
	ids := make([]string, jobs)
	for i := range ids {
		ids[i] = core.NewID()
		require.NoError(t, r.Register(newJob(ids[i])))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			r.Cancel(id)
		}(id)
		go func(id string) {
			defer wg.Done()
			r.Cleanup(id)
		}(id)
	}
	wg.Wait()

	assert.Empty(t, r.Active())
}
