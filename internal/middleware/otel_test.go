package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"milexcli/internal/infrastructure"
)

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var traceID string
	r := chi.NewRouter()
	r.Use(Tracing(tp.Tracer("test")))
	r.Get("/api/summary/{year}", func(w http.ResponseWriter, r *http.Request) {
		traceID = infrastructure.GetTraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/summary/1960", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/boom", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "GET /api/summary/{year}", spans[0].Name())
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), traceID)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
