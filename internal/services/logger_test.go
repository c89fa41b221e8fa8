package services

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewProductionLogger("relay", &buf, true)
	logger.With("thread_id", "t1").Warn("slow save", "ms", 250)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "slow save", rec["msg"])
	assert.Equal(t, "relay", rec["service"])
	assert.Equal(t, "t1", rec["thread_id"])
	assert.EqualValues(t, 250, rec["ms"])
}

func TestProductionLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewProductionLogger("relay", &buf, false)

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	logger.SetLevel(slog.LevelDebug)
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")

	buf.Reset()
	logger.SetLevel(slog.LevelError)
	logger.Info("hidden")
	logger.Error("boom")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_TestEnvIsSilent(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	_, ok := NewLogger("relay").(*NoOpLogger)
	assert.True(t, ok)
}
