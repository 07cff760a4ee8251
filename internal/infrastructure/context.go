package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateTraceID creates a new unique trace ID using UUID v4
func GenerateTraceID() string {
	return uuid.New().String()
}

// EnsureTraceID returns ctx unchanged when it already carries a trace ID,
// otherwise a child context with a fresh one. Batch runs call it once so
// that every log line of a run can be correlated.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, GenerateTraceID())
	}
	return ctx
}

// LoggerWithContext returns the global logger annotated with the trace ID
// carried by ctx, if any.
func LoggerWithContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if traceID := GetTraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}
	return logger
}

// WithComponent creates a logger with a component field
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With("component", component)
}
