package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Problem types following RFC 7807
const (
	TypeValidation  = "/errors/validation"
	TypeNotFound    = "/errors/not-found"
	TypeRateLimit   = "/errors/rate-limit"
	TypeInternal    = "/errors/internal"
	TypeServiceDown = "/errors/service-unavailable"
	TypeTimeout     = "/errors/timeout"
)

// Expenditure query problem types
const (
	TypeInvalidRegion   = "/errors/data/invalid-region"
	TypeInvalidRange    = "/errors/data/invalid-range"
	TypeCountryNotFound = "/errors/data/country-not-found"
	TypeYearNotFound    = "/errors/data/year-not-found"
	TypeNoMatchingYears = "/errors/data/no-matching-years"
	TypeMissingData     = "/errors/data/missing"
	TypeUndefinedGrowth = "/errors/data/undefined-growth"
	TypeDataUnavailable = "/errors/data/unavailable"
)

// queryProblems maps sentinel errors to status, type and title. Order
// matters only for errors wrapping several sentinels.
var queryProblems = []struct {
	err    error
	status int
	typ    string
	title  string
}{
	{ErrInvalidRegion, http.StatusBadRequest, TypeInvalidRegion, "Invalid Region"},
	{ErrInvalidRange, http.StatusBadRequest, TypeInvalidRange, "Invalid Year Range"},
	{ErrCountryNotFound, http.StatusNotFound, TypeCountryNotFound, "Country Not Found"},
	{ErrYearNotFound, http.StatusNotFound, TypeYearNotFound, "Year Not Found"},
	{ErrNoMatchingYears, http.StatusNotFound, TypeNoMatchingYears, "No Matching Years"},
	{ErrMissingData, http.StatusUnprocessableEntity, TypeMissingData, "Missing Data"},
	{ErrUndefinedGrowth, http.StatusUnprocessableEntity, TypeUndefinedGrowth, "Growth Rate Undefined"},
}

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem.WithExtension("trace_id", reqID)
	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	for _, qp := range queryProblems {
		if errors.Is(err, qp.err) {
			return NewProblemDetails(qp.status, qp.typ, qp.title, err.Error(), r.URL.Path)
		}
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrTypeStorage, ErrTypeParsing:
			return NewProblemDetails(
				http.StatusInternalServerError,
				TypeDataUnavailable,
				"Data Unavailable",
				"The expenditure data could not be read",
				r.URL.Path,
			).WithExtension("error_type", string(appErr.Type))
		}
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

// apiErrorToProblem converts APIError to ProblemDetails
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED", "INVALID_REQUEST", "INVALID_PARAMETER", "MISSING_PARAMETER":
		problemType = TypeValidation
	case "NOT_FOUND":
		problemType = TypeNotFound
	case "RATE_LIMIT_EXCEEDED":
		problemType = TypeRateLimit
	case "SERVICE_UNAVAILABLE":
		problemType = TypeServiceDown
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeInternal,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// Recoverer turns panics in downstream handlers into problem responses
func (h *ErrorHandler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.HandlePanic(w, r, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
