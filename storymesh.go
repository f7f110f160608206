// Package storymesh provides a high-level façade over the generation engine
// and its supporting services (story memory, agent routing, context retrieval
// & logging) for building long-form fiction assistants. Most applications
// interact with this package by:
//  1. Creating a StoryMesh via New() with a backend (optionally overriding the
//     default in-memory story store and registry)
//  2. Recording chapter summaries, facts and subplot touches on the store
//  3. Running generations (Generate) and cancelling them (Cancel) by id
//
// The façade delegates lifecycle orchestration to engine.Engine while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a durable
// store implementation and a structured logger.
package storymesh

import (
	"context"
	"time"

	"github.com/hupe1980/storymesh/backend"
	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/engine"
	"github.com/hupe1980/storymesh/logging"
	"github.com/hupe1980/storymesh/memory"
	"github.com/hupe1980/storymesh/retrieval"
	"github.com/hupe1980/storymesh/router"
)

// Options configures the StoryMesh instance.
type Options struct {
	// Store holds the story memory. Defaults to an in-memory store.
	Store core.StoryStore

	// Registry tracks in-flight generations. Defaults to an in-memory
	// registry owned by the engine.
	Registry core.Registry

	// Router resolves agent targets to instruction sets. Defaults to the
	// built-in table (writer, plot, character, editor, market).
	Router *router.Router

	// RetrievalConfig bounds context selection per generation.
	RetrievalConfig retrieval.Config

	// Timeout is the overall deadline for one generation. Zero disables it.
	Timeout time.Duration

	// MaxConcurrent limits simultaneously running generations. This prevents
	// resource exhaustion and provides backpressure. Set to 0 for unlimited
	// (not recommended).
	MaxConcurrent int

	// SystemTemplate / UserTemplate override the built-in prompt templates.
	SystemTemplate string
	UserTemplate   string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// StoryMesh is the high-level façade aggregating the engine and its services.
type StoryMesh struct {
	opts   Options
	store  core.StoryStore
	engine *engine.Engine
}

// New creates a StoryMesh around the given backend with optional overrides.
// Any unset service is initialized with an in-memory implementation.
func New(b backend.Backend, optFns ...func(o *Options)) (*StoryMesh, error) {
	opts := Options{
		Store:           memory.NewInMemoryStore(),
		RetrievalConfig: retrieval.DefaultConfig(),
		Timeout:         2 * time.Minute,
		MaxConcurrent:   10,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	eng, err := engine.New(opts.Store, b, func(o *engine.Options) {
		if opts.Registry != nil {
			o.Registry = opts.Registry
		}
		if opts.Router != nil {
			o.Router = opts.Router
		}
		o.RetrievalConfig = opts.RetrievalConfig
		o.Timeout = opts.Timeout
		o.MaxConcurrent = opts.MaxConcurrent
		o.SystemTemplate = opts.SystemTemplate
		o.UserTemplate = opts.UserTemplate
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	return &StoryMesh{opts: opts, store: opts.Store, engine: eng}, nil
}

// Store returns the story memory so callers can record summaries, facts,
// knowledge states and subplot touches.
func (m *StoryMesh) Store() core.StoryStore { return m.store }

// Registry exposes the engine's registry for introspection.
func (m *StoryMesh) Registry() core.Registry { return m.engine.Registry() }

// Generate runs one generation request to a terminal outcome. The call blocks
// until the job succeeds, fails or is cancelled; cancel concurrently via
// Cancel or by cancelling ctx.
func (m *StoryMesh) Generate(ctx context.Context, req core.GenerationRequest) (*core.GenerationResponse, error) {
	return m.engine.Run(ctx, req)
}

// Cancel requests cancellation of an in-flight generation by id. Unknown or
// already-finished ids are a harmless no-op.
func (m *StoryMesh) Cancel(generationID string) { m.engine.Cancel(generationID) }
