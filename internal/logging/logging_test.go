package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "json", Level: slog.LevelInfo})

	logger.Info("chapter translated", "chapter", 3)

	assert.Contains(t, buf.String(), `"msg":"chapter translated"`)
	assert.Contains(t, buf.String(), `"chapter":3`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestNew_TextIsDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})

	logger.Info("hello", "k", "v")

	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Level: slog.LevelWarn})

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_SourceIsShortened(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, AddSource: true})

	logger.Info("where")

	require.Contains(t, buf.String(), "logging_test.go")
	assert.NotContains(t, buf.String(), "/logging_test.go")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}
