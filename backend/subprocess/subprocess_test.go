package subprocess

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/storymesh/backend"
	"github.com/hupe1980/storymesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ backend.Backend = (*Backend)(nil)

func TestBackend_Success(t *testing.T) {
	b := New("sh", func(o *Options) {
		o.Args = []string{"-c", `cat >/dev/null; printf '{"text":"Hello","usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}'`}
	})

	res, err := b.Invoke(context.Background(), backend.Request{System: "sys", Prompt: "go"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Text)
	require.NotNil(t, res.Usage)
	assert.Equal(t, 4, res.Usage.TotalTokens)
}

func TestBackend_NonZeroExit(t *testing.T) {
	b := New("sh", func(o *Options) {
		o.Args = []string{"-c", `cat >/dev/null; echo "model crashed" >&2; exit 3`}
	})

	_, err := b.Invoke(context.Background(), backend.Request{Prompt: "go"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackendFailure)
	assert.Contains(t, err.Error(), "model crashed")
}

func TestBackend_MalformedPayload(t *testing.T) {
	b := New("sh", func(o *Options) {
		o.Args = []string{"-c", `cat >/dev/null; echo "this is not json"`}
	})

	_, err := b.Invoke(context.Background(), backend.Request{Prompt: "go"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedPayload)
}

func TestBackend_CancellationKillsProcess(t *testing.T) {
	b := New("sh", func(o *Options) {
		o.Args = []string{"-c", `sleep 30`}
		o.WaitDelay = time.Second
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := b.Invoke(ctx, backend.Request{Prompt: "go"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// The process group is terminated; the call must not wait out the sleep.
	assert.Less(t, time.Since(start), 5*time.Second)
}
