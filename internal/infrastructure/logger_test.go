package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milexcli/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	cfg := config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.FileExists(t, logFile)

	logger.Info("table loaded", "region", "aisan")
	logger.Debug("suppressed at info level")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "table loaded", entry["msg"])
	assert.Equal(t, "aisan", entry["region"])
	assert.Equal(t, "INFO", entry["level"])

	// Only the first initialization counts.
	again, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)
	assert.Same(t, logger, again)
	assert.Same(t, logger, GetLogger())
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug, false)

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.With("component", "test").InfoContext(ctx, "with trace")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace-123", entry["trace_id"])
	assert.Equal(t, "test", entry["component"])

	buf.Reset()
	logger.InfoContext(context.Background(), "without trace")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestEnsureTraceID(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	assert.Len(t, id, 36)

	assert.Equal(t, id, GetTraceID(EnsureTraceID(ctx)))
}
