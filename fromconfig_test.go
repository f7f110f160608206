package storymesh

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/storymesh/config"
	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfig_MockProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Retrieval = config.RetrievalConfig{MaxSummaries: 2, MaxFacts: 4}
	cfg.Engine = config.EngineConfig{Timeout: 30 * time.Second, MaxConcurrent: 2}

	store := memory.NewInMemoryStore()
	store.RecordSummary(core.ChapterSummary{
		Chapter:           1,
		Summary:           "Mara takes the job.",
		CharactersPresent: []string{"mara"},
	})

	mesh, err := NewFromConfig(cfg, func(o *Options) { o.Store = store })
	require.NoError(t, err)

	resp, err := mesh.Generate(context.Background(), core.GenerationRequest{
		AgentTarget: "writer",
		Action:      core.ContinueScene{Chapter: 2, POVCharacter: "mara", Direction: "the job goes sideways"},
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.Result)
}

func TestNewFromConfig_SubprocessProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendConfig{
		Provider: "subprocess",
		Command:  "sh",
		Args:     []string{"-c", `cat >/dev/null; echo '{"text":"ok"}'`},
	}

	mesh, err := NewFromConfig(cfg)
	require.NoError(t, err)

	resp, err := mesh.Generate(context.Background(), core.GenerationRequest{
		AgentTarget: "writer",
		Action:      core.FreeForm{Chapter: 1, Prompt: "a single line"},
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusSuccess, resp.Status)
	assert.Equal(t, "ok", resp.Result)
}

func TestNewFromConfig_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Provider = "carrier-pigeon"

	_, err := NewFromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestNewFromConfig_SubprocessWithoutCommand(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Provider = "subprocess"

	_, err := NewFromConfig(cfg)
	require.Error(t, err)
}

func TestNewFromConfig_NilConfig(t *testing.T) {
	_, err := NewFromConfig(nil)
	require.Error(t, err)
}
