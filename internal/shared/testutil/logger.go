package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is a captured log entry
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler records every log entry so tests can assert on them.
// Attributes added with Logger.With are merged into each record.
type CaptureHandler struct {
	mu      *sync.Mutex
	records *[]LogRecord
	attrs   []slog.Attr
	t       *testing.T
}

// NewCaptureHandler creates an empty handler. t may be nil.
func NewCaptureHandler(t *testing.T) *CaptureHandler {
	return &CaptureHandler{
		mu:      &sync.Mutex{},
		records: &[]LogRecord{},
		t:       t,
	}
}

// Handle implements slog.Handler
func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	*h.records = append(*h.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// Enabled implements slog.Handler
func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler. Groups are flattened.
func (h *CaptureHandler) WithGroup(string) slog.Handler {
	return h
}

// Records returns a copy of everything captured so far
func (h *CaptureHandler) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(*h.records))
	copy(out, *h.records)
	return out
}

// ByLevel returns the records logged at level
func (h *CaptureHandler) ByLevel(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range h.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// ContainsMessage reports whether any record message contains message
func (h *CaptureHandler) ContainsMessage(message string) bool {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, message) {
			return true
		}
	}
	return false
}

// ContainsAttr reports whether any record carries key=value
func (h *CaptureHandler) ContainsAttr(key string, value any) bool {
	for _, r := range h.Records() {
		if v, ok := r.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

// NewTestLogger returns a logger backed by a CaptureHandler
func NewTestLogger(t *testing.T) (*slog.Logger, *CaptureHandler) {
	h := NewCaptureHandler(t)
	return slog.New(h), h
}

// AssertLogContains fails the test when no record at level contains message
func AssertLogContains(t *testing.T, h *CaptureHandler, level slog.Level, message string) {
	t.Helper()
	for _, r := range h.ByLevel(level) {
		if strings.Contains(r.Message, message) {
			return
		}
	}
	t.Errorf("expected %s log containing %q", level, message)
}

// AssertNoErrors fails the test when anything was logged at error level
func AssertNoErrors(t *testing.T, h *CaptureHandler) {
	t.Helper()
	for _, r := range h.ByLevel(slog.LevelError) {
		t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
	}
}
