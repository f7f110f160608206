package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/storymesh/backend"
	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/internal/prompt"
	"github.com/hupe1980/storymesh/logging"
	"github.com/hupe1980/storymesh/registry"
	"github.com/hupe1980/storymesh/retrieval"
	"github.com/hupe1980/storymesh/router"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Registry tracks in-flight jobs. Defaults to an in-memory registry
	// owned by this engine.
	Registry core.Registry
	// Router resolves agent targets. Defaults to the built-in table.
	Router *router.Router
	// RetrievalConfig bounds context selection.
	RetrievalConfig retrieval.Config
	// Timeout is the overall deadline for one generation. Zero disables the
	// deadline.
	Timeout time.Duration
	// MaxConcurrent limits concurrently running generations. Zero means
	// unlimited.
	MaxConcurrent int
	// SystemTemplate / UserTemplate override the built-in prompt templates.
	SystemTemplate string
	UserTemplate   string
	// Logger for operational logging.
	Logger logging.Logger
}

// Engine coordinates generation jobs: resolves descriptors, assembles
// context, registers jobs, drives the backend and maps every exit to a
// terminal outcome. Public methods are safe for concurrent use.
type Engine struct {
	store     core.StoryStore
	backend   backend.Backend
	registry  core.Registry
	router    *router.Router
	policy    *retrieval.Policy
	templates *prompt.Templates
	logger    logging.Logger
	timeout   time.Duration
	sem       chan struct{}
}

// New constructs an Engine with optional overrides. It returns an error only
// when a custom prompt template fails to parse.
func New(store core.StoryStore, b backend.Backend, optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{
		Registry:        registry.NewInMemory(),
		Router:          router.New(),
		RetrievalConfig: retrieval.DefaultConfig(),
		Timeout:         2 * time.Minute,
		MaxConcurrent:   10,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	templates, err := prompt.New(opts.SystemTemplate, opts.UserTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}

	var sem chan struct{}
	if opts.MaxConcurrent > 0 {
		sem = make(chan struct{}, opts.MaxConcurrent)
	}

	return &Engine{
		store:     store,
		backend:   b,
		registry:  opts.Registry,
		router:    opts.Router,
		policy:    retrieval.New(opts.RetrievalConfig, func(o *retrieval.Options) { o.Logger = opts.Logger }),
		templates: templates,
		logger:    opts.Logger,
		timeout:   opts.Timeout,
		sem:       sem,
	}, nil
}

// Registry exposes the engine's registry for introspection and external
// cancellation wiring.
func (e *Engine) Registry() core.Registry { return e.registry }

// Cancel requests cooperative cancellation of an in-flight generation.
// Cancelling an unknown or already-finished id is a harmless no-op.
func (e *Engine) Cancel(generationID string) {
	e.registry.Cancel(generationID)
}

// invokeResult pairs the backend outcome for channel transport.
type invokeResult struct {
	res *backend.Result
	err error
}

// Run drives one generation request to a terminal outcome.
//
// The returned response always carries the generation id. Status semantics:
//   - success:   backend produced text and no cancellation was observed
//   - cancelled: an explicit cancel, caller disconnect or timeout fired
//     before the result was consumed; never an error
//   - error:     the backend failed; the error return carries the wrapped
//     cause while the response duplicates a human-readable reason
//
// Cancellation takes priority over a late-arriving success. The registry
// entry is removed on every exit path.
func (e *Engine) Run(ctx context.Context, req core.GenerationRequest) (*core.GenerationResponse, error) {
	id := req.GenerationID
	if id == "" {
		id = core.NewID()
	}

	if req.Action == nil {
		err := fmt.Errorf("generation %s: request carries no action", id)
		return &core.GenerationResponse{Status: core.StatusError, GenerationID: id, Reason: err.Error()}, err
	}

	desc := e.router.Resolve(req.AgentTarget)

	if e.sem != nil {
		select {
		case e.sem <- struct{}{}:
			defer func() { <-e.sem }()
		case <-ctx.Done():
			return e.cancelled(id, desc.Name), nil
		}
	}

	job := core.Job{ID: id, Agent: desc.Name, Action: req.Action.Kind(), StartedAt: time.Now()}
	if err := e.registry.Register(job); err != nil {
		err = fmt.Errorf("failed to register generation: %w", err)
		return &core.GenerationResponse{Status: core.StatusError, GenerationID: id, Agent: desc.Name, Reason: err.Error()}, err
	}
	defer e.registry.Cleanup(id)

	chapter, pov, task := actionInputs(req.Action)
	bundle := e.policy.Select(chapter, pov, task, e.store)

	instruction, err := desc.Instruction.Resolve(bundle)
	if err != nil {
		err = fmt.Errorf("failed to resolve instructions for agent %s: %w", desc.Name, err)
		return &core.GenerationResponse{Status: core.StatusError, GenerationID: id, Agent: desc.Name, Reason: err.Error()}, err
	}

	system, user, err := e.templates.Render(instruction, bundle, req.Action)
	if err != nil {
		err = fmt.Errorf("failed to build prompts: %w", err)
		return &core.GenerationResponse{Status: core.StatusError, GenerationID: id, Agent: desc.Name, Reason: err.Error()}, err
	}

	// The derived context is the interruption channel to the backend: any
	// cancellation trigger cancels it, which terminates an interruptible
	// backend call. A non-interruptible call keeps running with its result
	// discarded; the registry entry is cleaned up regardless.
	runCtx, cancelInvoke := context.WithCancel(ctx)
	defer cancelInvoke()

	resCh := make(chan invokeResult, 1)
	go func() {
		res, invokeErr := e.backend.Invoke(runCtx, backend.Request{System: system, Prompt: user})
		resCh <- invokeResult{res: res, err: invokeErr}
	}()

	var timeoutCh <-chan time.Time
	if e.timeout > 0 {
		timer := time.NewTimer(e.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	e.logger.Debug("generation started generation_id=%s agent=%s action=%s backend=%s",
		id, desc.Name, req.Action.Kind(), e.backend.Info().Name)

	select {
	case <-e.registry.Done(id):
		// Explicit cancel against this id.
		e.logger.Info("generation cancelled generation_id=%s", id)
		return e.cancelled(id, desc.Name), nil

	case <-ctx.Done():
		// Caller disconnected; funnel into the same cancel primitive.
		e.registry.Cancel(id)
		e.logger.Info("generation abandoned by caller generation_id=%s", id)
		return e.cancelled(id, desc.Name), nil

	case <-timeoutCh:
		e.registry.Cancel(id)
		e.logger.Warn("generation timed out generation_id=%s timeout=%s", id, e.timeout)
		return e.cancelled(id, desc.Name), nil

	case r := <-resCh:
		if e.registry.IsCancelled(id) {
			// Cancellation and completion raced; cancellation takes priority
			// over a late-arriving success.
			e.logger.Info("generation result discarded after cancel generation_id=%s", id)
			return e.cancelled(id, desc.Name), nil
		}
		if r.err != nil {
			err := fmt.Errorf("generation %s failed: %w", id, r.err)
			e.logger.Error("generation failed generation_id=%s error=%v", id, r.err)
			return &core.GenerationResponse{
				Status:       core.StatusError,
				GenerationID: id,
				Agent:        desc.Name,
				Reason:       r.err.Error(),
			}, err
		}

		e.logger.Debug("generation succeeded generation_id=%s chars=%d", id, len(r.res.Text))
		return &core.GenerationResponse{
			Status:       core.StatusSuccess,
			Result:       r.res.Text,
			GenerationID: id,
			Agent:        desc.Name,
			Usage:        r.res.Usage,
		}, nil
	}
}

func (e *Engine) cancelled(id, agent string) *core.GenerationResponse {
	return &core.GenerationResponse{Status: core.StatusCancelled, GenerationID: id, Agent: agent}
}
