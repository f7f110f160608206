package storymesh

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"golang.org/x/time/rate"

	"github.com/hupe1980/storymesh/backend"
	"github.com/hupe1980/storymesh/backend/anthropic"
	"github.com/hupe1980/storymesh/backend/openai"
	"github.com/hupe1980/storymesh/backend/subprocess"
	"github.com/hupe1980/storymesh/config"
	"github.com/hupe1980/storymesh/logging"
	"github.com/hupe1980/storymesh/retrieval"
)

// NewFromConfig builds a StoryMesh from a loaded file configuration: it
// selects the backend provider, applies retrieval budgets, lifecycle limits
// and the configured logger. Functional options run after the config mapping
// and take precedence.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*StoryMesh, error) {
	if cfg == nil {
		return nil, fmt.Errorf("failed to build from config: config is nil")
	}

	b, err := backendFromConfig(cfg.Backend)
	if err != nil {
		return nil, err
	}

	return New(b, func(o *Options) {
		o.RetrievalConfig = retrievalFromConfig(cfg.Retrieval)
		if cfg.Engine.Timeout > 0 {
			o.Timeout = cfg.Engine.Timeout
		}
		if cfg.Engine.MaxConcurrent > 0 {
			o.MaxConcurrent = cfg.Engine.MaxConcurrent
		}
		o.Logger = logging.NewLogger(&logging.LoggerConfig{
			Level:  logging.ParseLogLevel(cfg.Logging.Level),
			Format: cfg.Logging.Format,
		})

		for _, fn := range optFns {
			fn(o)
		}
	})
}

// backendFromConfig maps the provider selection onto a backend adapter.
func backendFromConfig(bc config.BackendConfig) (backend.Backend, error) {
	var limiter *rate.Limiter
	if bc.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(bc.RequestsPerMinute)/60, 1)
	}

	switch bc.Provider {
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			o.APIKey = bc.APIKey
			if bc.Model != "" {
				o.Model = anthropicsdk.Model(bc.Model)
			}
			if bc.MaxTokens > 0 {
				o.MaxTokens = int64(bc.MaxTokens)
			}
			if bc.Temperature > 0 {
				o.Temperature = bc.Temperature
			}
			o.Limiter = limiter
		}), nil

	case "openai":
		return openai.New(func(o *openai.Options) {
			o.APIKey = bc.APIKey
			if bc.Model != "" {
				o.Model = bc.Model
			}
			if bc.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(bc.MaxTokens)
			}
			if bc.Temperature > 0 {
				o.Temperature = bc.Temperature
			}
			o.Limiter = limiter
		}), nil

	case "subprocess":
		if bc.Command == "" {
			return nil, fmt.Errorf("failed to build subprocess backend: no command configured")
		}
		return subprocess.New(bc.Command, func(o *subprocess.Options) {
			o.Args = bc.Args
		}), nil

	case "mock":
		return backend.NewMock("mock"), nil

	default:
		return nil, fmt.Errorf("failed to build backend: unknown provider %q", bc.Provider)
	}
}

// retrievalFromConfig overlays configured budgets on the retrieval defaults,
// so partial configs only tighten what they name.
func retrievalFromConfig(rc config.RetrievalConfig) retrieval.Config {
	out := retrieval.DefaultConfig()
	if rc.MaxSummaries > 0 {
		out.MaxSummaries = rc.MaxSummaries
	}
	if rc.MaxFacts > 0 {
		out.MaxFacts = rc.MaxFacts
	}
	if rc.MaxSubplots > 0 {
		out.MaxSubplots = rc.MaxSubplots
	}
	if rc.DormancyWindow > 0 {
		out.DormancyWindow = rc.DormancyWindow
	}
	return out
}
