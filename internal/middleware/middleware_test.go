package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milexcli/internal/infrastructure"
	"milexcli/internal/shared/testutil"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func TestRequestID(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		var seen, traceID string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetReqID(r.Context())
			traceID = infrastructure.GetTraceID(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seen)
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
		assert.Equal(t, seen, traceID)
	})

	t.Run("keeps inbound id", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetReqID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "client-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "client-123", seen)
		assert.Equal(t, "client-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestStructuredLogger(t *testing.T) {
	logger, capture := testutil.NewTestLogger(t)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(StructuredLogger(logger, nil))
	r.Get("/api/global/{year}", okHandler)
	r.Get("/api/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/global/1960", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	testutil.AssertLogContains(t, capture, slog.LevelInfo, "request completed")
	assert.True(t, capture.ContainsAttr("path", "/api/global/1960"))
	assert.True(t, capture.ContainsAttr("status", int64(http.StatusOK)))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fail", nil))
	testutil.AssertLogContains(t, capture, slog.LevelError, "request completed")
}

func TestRateLimiter(t *testing.T) {
	logger, capture := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 2, logger)
	h := rl.Handler(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/years", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.True(t, capture.ContainsMessage("rate limit exceeded"))
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name          string
		origins       []string
		method        string
		origin        string
		expectedCode  int
		expectedAllow string
	}{
		{"allowed origin", []string{"http://localhost:3000"}, http.MethodGet, "http://localhost:3000", http.StatusOK, "http://localhost:3000"},
		{"foreign origin", []string{"http://localhost:3000"}, http.MethodGet, "http://evil.example", http.StatusOK, ""},
		{"wildcard", []string{"*"}, http.MethodGet, "http://any.example", http.StatusOK, "http://any.example"},
		{"preflight", nil, http.MethodOptions, "http://any.example", http.StatusNoContent, "http://any.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(CORSConfig{AllowedOrigins: tt.origins})(http.HandlerFunc(okHandler))

			req := httptest.NewRequest(tt.method, "/api/years", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Equal(t, tt.expectedAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}
