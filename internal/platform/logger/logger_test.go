package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/totem-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  slog.Level
		known bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := logger.ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, ok)
		})
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "warn")

	log.Info("hidden")
	log.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestNew_InvalidLevelWarns(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "chatty")

	log.Debug("not logged")

	assert.Contains(t, buf.String(), "invalid log level configured")
	assert.NotContains(t, buf.String(), "not logged")
}

func TestContextLogger(t *testing.T) {
	log, buf := logger.NewTestLogger()
	ctx := logger.WithLogger(context.Background(), log.With("trace_id", "abc"))

	logger.FromContext(ctx).Info("from context")

	entries := buf.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0]["trace_id"])
	assert.Equal(t, "from context", entries[0]["msg"])
}

func TestFromContextOrDefault(t *testing.T) {
	fallback, _ := logger.NewTestLogger()

	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
}
