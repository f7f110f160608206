package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_NilOutputDefaultsToStdout(t *testing.T) {
	// Constructing with a partial config, as applications typically do, must
	// yield a logger that can emit without panicking.
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text"})

	require.NotPanics(t, func() {
		logger.Info("generation cancelled generation_id=%s", "gen-1")
		logger.Error("generation failed generation_id=%s", "gen-1")
	})
}

func TestNewLogger_NilConfigDefaults(t *testing.T) {
	logger := NewLogger(nil)
	require.NotPanics(t, func() {
		logger.Warn("degraded retrieval")
	})
}

func TestNewLogger_WritesToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "text", Output: &buf, Component: "engine"})

	logger.Info("generation started")

	out := buf.String()
	assert.Contains(t, out, "generation started")
	assert.Contains(t, out, "component=engine")
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})

	logger.Debug("quiet")
	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestStoryMeshLogger_WithGeneration(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf})

	logger.WithGeneration("gen-7", "writer").Info("result discarded")

	out := buf.String()
	assert.Contains(t, out, "generation_id=gen-7")
	assert.Contains(t, out, "agent=writer")
}

func TestStoryMeshLogger_LogBackendCall(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf})

	logger.LogBackendCall("anthropic", 128, 250*time.Millisecond, false, errors.New("connection reset"))

	out := buf.String()
	assert.Contains(t, out, "Backend call failed")
	assert.Contains(t, out, "connection reset")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("WARN"))
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("anything-else"))
}

func TestNoOpLogger_Silent(t *testing.T) {
	var l Logger = NoOpLogger{}
	l.Debug("a")
	l.Info("b")
	l.Warn("c")
	l.Error("d")
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(99).String())
}
