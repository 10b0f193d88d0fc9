package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_TextHandlerWritesAttrs(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	logger := New(&buf, "info", "text").With("session", "abc")

	logger.Debug("hidden")
	logger.WithGroup("http").Error("query request failed", "status", 502)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "ERR query request failed")
	assert.Contains(t, out, "session=abc")
	assert.Contains(t, out, "http.status=502")
}

func TestNew_JSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "json")

	logger.Info("summary request sent", "file", "brief.pdf")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "summary request sent", rec["msg"])
	assert.Equal(t, "brief.pdf", rec["file"])
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
