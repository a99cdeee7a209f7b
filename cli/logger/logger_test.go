package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	for option, want := range map[string]slog.Leveler{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, ok := level(option)
		require.True(t, ok, option)
		assert.Equal(t, want, got, option)
	}

	got, ok := level("")
	assert.True(t, ok)
	assert.Nil(t, got)

	_, ok = level("loud")
	assert.False(t, ok)
}

func TestNewFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "contacts.log")
	options := &Options{Level: "warn", File: file, Format: "json"}

	logger := New(options)
	logger.Info("hidden")
	logger.Warn("shown", "n", 1)

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	var line map[string]any
	require.NoError(t, json.Unmarshal(content, &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "WARN", line["level"])
}

func TestNewResetsBadOptions(t *testing.T) {
	options := &Options{Level: "loud", File: os.DevNull, Format: "xml"}
	New(options)
	assert.Empty(t, options.Level)

	var buf bytes.Buffer
	options = &Options{Format: "xml"}
	logger := newWithWriter(options, &buf, &slog.HandlerOptions{})
	assert.Equal(t, "text", options.Format)
	assert.Contains(t, buf.String(), "could not parse logger format")
	logger.Info("still logging")
	assert.Contains(t, buf.String(), "still logging")
}
