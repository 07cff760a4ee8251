package operations

import (
	"errors"
	"fmt"

	apperrors "milexcli/internal/errors"
)

// Process exit codes of the batch tools
const (
	ExitOK           = 0
	ExitSetupFailure = 1
	ExitNoInput      = 2
	ExitStepFailure  = 3
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypePartial      ErrorType = "partial"
)

// OperationError represents a step-specific error
type OperationError struct {
	Type    ErrorType `json:"type"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewExecutionError wraps the failure of a step
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "step execution failed",
		Cause:   cause,
	}
}

// NewCancellationError reports a step that was not run because the context
// ended
func NewCancellationError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "operation was cancelled",
		Cause:   cause,
	}
}

// NewPartialError reports a step that completed with failed items
func NewPartialError(step string, failed []string) *OperationError {
	return &OperationError{
		Type:    ErrorTypePartial,
		Step:    step,
		Message: fmt.Sprintf("%d item(s) failed: %v", len(failed), failed),
	}
}

// ExitCodeFor maps a step error to a process exit code
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, apperrors.ErrNoInputFiles):
		return ExitNoInput
	default:
		return ExitStepFailure
	}
}
