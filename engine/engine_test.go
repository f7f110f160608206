package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/storymesh/backend"
	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/internal/testutil"
	"github.com/hupe1980/storymesh/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingBackend always reports an abnormal termination.
type failingBackend struct{ err error }

func (f *failingBackend) Invoke(context.Context, backend.Request) (*backend.Result, error) {
	return nil, f.err
}

func (f *failingBackend) Info() backend.Info {
	return backend.Info{Name: "broken", Provider: "mock", Interruptible: true}
}

// stubbornBackend ignores cancellation and always answers after its delay,
// modelling a boundary call that cannot be interrupted.
type stubbornBackend struct {
	delay time.Duration
	text  string
}

func (s *stubbornBackend) Invoke(_ context.Context, _ backend.Request) (*backend.Result, error) {
	time.Sleep(s.delay)
	return &backend.Result{Text: s.text}, nil
}

func (s *stubbornBackend) Info() backend.Info {
	return backend.Info{Name: "stubborn", Provider: "mock", Interruptible: false}
}

func testStore() core.StoryStore {
	return testutil.NewStoryBuilder().
		WithChapters(6, "mara", "joss").
		WithKnowledge(core.KnowledgeState{
			CharacterID:       "mara",
			AsOfChapter:       5,
			RecentExperiences: []string{"found the torn ledger page"},
		}).
		WithFact(core.Fact{Subject: "vex", SubjectKind: core.SubjectCharacter, Statement: "vex is the informant", Confidence: core.ConfidenceExplicit, SourceChapter: 4}).
		Build()
}

func continueAction() core.ActionPayload {
	return core.ContinueScene{Chapter: 7, POVCharacter: "mara", Direction: "head for the docks"}
}

func TestEngine_HappyPath(t *testing.T) {
	mock := backend.NewMock("test")
	reg := registry.NewInMemory()

	e, err := New(testStore(), mock, func(o *Options) { o.Registry = reg })
	require.NoError(t, err)

	resp, err := e.Run(context.Background(), core.GenerationRequest{
		AgentTarget: "writer",
		Action:      continueAction(),
	})
	require.NoError(t, err)

	assert.Equal(t, core.StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.Result)
	assert.NotEmpty(t, resp.GenerationID)
	assert.Equal(t, "writer", resp.Agent)
	require.NotNil(t, resp.Usage)

	// Cleanup always happens: the registry is empty after Run returns.
	assert.Empty(t, reg.Active())
}

func TestEngine_CallerSuppliedGenerationID(t *testing.T) {
	e, err := New(testStore(), backend.NewMock("test"))
	require.NoError(t, err)

	resp, err := e.Run(context.Background(), core.GenerationRequest{
		GenerationID: "gen-42",
		AgentTarget:  "writer",
		Action:       continueAction(),
	})
	require.NoError(t, err)
	assert.Equal(t, "gen-42", resp.GenerationID)
}

func TestEngine_UnknownAgentFallsBackToWriter(t *testing.T) {
	e, err := New(testStore(), backend.NewMock("test"))
	require.NoError(t, err)

	resp, err := e.Run(context.Background(), core.GenerationRequest{
		AgentTarget: "nonexistent-agent",
		Action:      continueAction(),
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusSuccess, resp.Status)
	assert.Equal(t, "writer", resp.Agent)
}

func TestEngine_ExplicitCancelRace(t *testing.T) {
	mock := backend.NewMock("slow")
	mock.SetLatency(5 * time.Second)
	reg := registry.NewInMemory()

	e, err := New(testStore(), mock, func(o *Options) { o.Registry = reg })
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		e.Cancel("gen-1")
	}()

	start := time.Now()
	resp, err := e.Run(context.Background(), core.GenerationRequest{
		GenerationID: "gen-1",
		AgentTarget:  "writer",
		Action:       continueAction(),
	})
	require.NoError(t, err)

	// Cancelled promptly, without waiting out the 5s backend call, and the
	// registry entry is gone.
	assert.Equal(t, core.StatusCancelled, resp.Status)
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, reg.Active())
	assert.False(t, reg.IsCancelled("gen-1"))
}

func TestEngine_CancellationPrecedesLateSuccess(t *testing.T) {
	// The backend cannot be interrupted and will eventually "succeed", but
	// the cancel is observed first: Run must never return success.
	reg := registry.NewInMemory()
	e, err := New(testStore(), &stubbornBackend{delay: 200 * time.Millisecond, text: "late text"},
		func(o *Options) { o.Registry = reg })
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		e.Cancel("gen-1")
	}()

	resp, err := e.Run(context.Background(), core.GenerationRequest{
		GenerationID: "gen-1",
		AgentTarget:  "writer",
		Action:       continueAction(),
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCancelled, resp.Status)
	assert.Empty(t, resp.Result)
	assert.Empty(t, reg.Active())
}

func TestEngine_CallerDisconnect(t *testing.T) {
	mock := backend.NewMock("slow")
	mock.SetLatency(5 * time.Second)
	reg := registry.NewInMemory()

	e, err := New(testStore(), mock, func(o *Options) { o.Registry = reg })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	resp, err := e.Run(ctx, core.GenerationRequest{
		AgentTarget: "writer",
		Action:      continueAction(),
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCancelled, resp.Status)
	assert.Empty(t, reg.Active())
}

func TestEngine_Timeout(t *testing.T) {
	mock := backend.NewMock("slow")
	mock.SetLatency(5 * time.Second)
	reg := registry.NewInMemory()

	e, err := New(testStore(), mock, func(o *Options) {
		o.Registry = reg
		o.Timeout = 50 * time.Millisecond
	})
	require.NoError(t, err)

	start := time.Now()
	resp, err := e.Run(context.Background(), core.GenerationRequest{
		AgentTarget: "writer",
		Action:      continueAction(),
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCancelled, resp.Status)
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, reg.Active())
}

func TestEngine_BackendFailure(t *testing.T) {
	reg := registry.NewInMemory()
	cause := fmt.Errorf("%w: exit status 3", core.ErrBackendFailure)

	e, err := New(testStore(), &failingBackend{err: cause}, func(o *Options) { o.Registry = reg })
	require.NoError(t, err)

	resp, err := e.Run(context.Background(), core.GenerationRequest{
		AgentTarget: "writer",
		Action:      continueAction(),
	})

	// Failures propagate with the raw cause preserved, never converted to an
	// empty success, and are never retried.
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrBackendFailure))
	assert.Equal(t, core.StatusError, resp.Status)
	assert.Contains(t, resp.Reason, "exit status 3")

	// Cleanup happens on the failure path too.
	assert.Empty(t, reg.Active())
}

func TestEngine_MissingAction(t *testing.T) {
	e, err := New(testStore(), backend.NewMock("test"))
	require.NoError(t, err)

	resp, err := e.Run(context.Background(), core.GenerationRequest{AgentTarget: "writer"})
	require.Error(t, err)
	assert.Equal(t, core.StatusError, resp.Status)
}

func TestEngine_DuplicateGenerationID(t *testing.T) {
	mock := backend.NewMock("slow")
	mock.SetLatency(time.Second)
	reg := registry.NewInMemory()

	e, err := New(testStore(), mock, func(o *Options) { o.Registry = reg })
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Run(context.Background(), core.GenerationRequest{
			GenerationID: "gen-dup",
			AgentTarget:  "writer",
			Action:       continueAction(),
		})
	}()

	time.Sleep(100 * time.Millisecond)

	resp, err := e.Run(context.Background(), core.GenerationRequest{
		GenerationID: "gen-dup",
		AgentTarget:  "writer",
		Action:       continueAction(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDuplicateGeneration))
	assert.Equal(t, core.StatusError, resp.Status)

	e.Cancel("gen-dup")
	<-done
	assert.Empty(t, reg.Active())
}

func TestEngine_IdempotentCancelAfterFinish(t *testing.T) {
	reg := registry.NewInMemory()
	e, err := New(testStore(), backend.NewMock("test"), func(o *Options) { o.Registry = reg })
	require.NoError(t, err)

	resp, err := e.Run(context.Background(), core.GenerationRequest{
		GenerationID: "gen-1",
		AgentTarget:  "writer",
		Action:       continueAction(),
	})
	require.NoError(t, err)
	require.Equal(t, core.StatusSuccess, resp.Status)

	// Cancelling a finished job never errors and changes nothing.
	e.Cancel("gen-1")
	e.Cancel("gen-1")
	assert.Empty(t, reg.Active())
}

func TestEngine_ConcurrentJobsAreIndependent(t *testing.T) {
	mock := backend.NewMock("test")
	reg := registry.NewInMemory()

	e, err := New(testStore(), mock, func(o *Options) {
		o.Registry = reg
		o.MaxConcurrent = 4
	})
	require.NoError(t, err)

	type outcome struct {
		resp *core.GenerationResponse
		err  error
	}

	const jobs = 16
	results := make(chan outcome, jobs)
	for i := 0; i < jobs; i++ {
		go func() {
			resp, runErr := e.Run(context.Background(), core.GenerationRequest{
				AgentTarget: "writer",
				Action:      continueAction(),
			})
			results <- outcome{resp: resp, err: runErr}
		}()
	}

	seen := make(map[string]struct{}, jobs)
	for i := 0; i < jobs; i++ {
		o := <-results
		require.NoError(t, o.err)
		assert.Equal(t, core.StatusSuccess, o.resp.Status)
		seen[o.resp.GenerationID] = struct{}{}
	}
	assert.Len(t, seen, jobs)
	assert.Empty(t, reg.Active())
}
