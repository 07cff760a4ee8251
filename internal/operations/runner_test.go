package operations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "milexcli/internal/errors"
	"milexcli/internal/shared/testutil"
)

// MockStep is a testify mock of Step
type MockStep struct {
	mock.Mock
	id, name string
}

func newMockStep(id string) *MockStep {
	return &MockStep{id: id, name: "Step " + id}
}

func (m *MockStep) ID() string   { return m.id }
func (m *MockStep) Name() string { return m.name }

func (m *MockStep) Execute(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func runSteps(t *testing.T, steps ...Step) *Summary {
	t.Helper()
	r := NewRegistry()
	for _, s := range steps {
		require.NoError(t, r.Register(s))
	}
	logger, _ := testutil.NewTestLogger(t)
	return NewRunner(r, logger, nil).Run(context.Background())
}

func TestRunner_AllSucceed(t *testing.T) {
	a, b := newMockStep("a"), newMockStep("b")
	a.On("Execute", mock.Anything).Return(nil).Once()
	b.On("Execute", mock.Anything).Return(nil).Once()

	summary := runSteps(t, a, b)

	a.AssertExpectations(t)
	b.AssertExpectations(t)
	assert.Equal(t, []string{"Step a", "Step b"}, summary.Succeeded())
	assert.Empty(t, summary.Failed())
	assert.Equal(t, ExitOK, summary.ExitCode())
	for _, st := range summary.Steps {
		assert.Equal(t, StepStatusCompleted, st.Status)
		assert.NotNil(t, st.StartTime)
		assert.NotNil(t, st.EndTime)
	}
}

func TestRunner_FailureDoesNotStopLaterSteps(t *testing.T) {
	a, b := newMockStep("a"), newMockStep("b")
	a.On("Execute", mock.Anything).Return(errors.New("boom")).Once()
	b.On("Execute", mock.Anything).Return(nil).Once()

	summary := runSteps(t, a, b)

	b.AssertExpectations(t)
	assert.Equal(t, []string{"Step a"}, summary.Failed())
	assert.Equal(t, []string{"Step b"}, summary.Succeeded())
	assert.Equal(t, ExitStepFailure, summary.ExitCode())

	var opErr *OperationError
	require.ErrorAs(t, summary.Steps[0].Error, &opErr)
	assert.Equal(t, ErrorTypeExecution, opErr.Type)
	assert.Equal(t, "a", opErr.Step)
}

func TestRunner_NoInputExitCode(t *testing.T) {
	a, b := newMockStep("a"), newMockStep("b")
	a.On("Execute", mock.Anything).Return(fmt.Errorf("%w in /data", apperrors.ErrNoInputFiles)).Once()
	b.On("Execute", mock.Anything).Return(errors.New("later failure")).Once()

	summary := runSteps(t, a, b)
	assert.Equal(t, ExitNoInput, summary.ExitCode())
}

func TestRunner_CanceledContext(t *testing.T) {
	a := newMockStep("a")
	r := NewRegistry()
	require.NoError(t, r.Register(a))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary := NewRunner(r, nil, nil).Run(ctx)

	a.AssertNotCalled(t, "Execute", mock.Anything)
	require.Len(t, summary.Steps, 1)
	var opErr *OperationError
	require.ErrorAs(t, summary.Steps[0].Error, &opErr)
	assert.Equal(t, ErrorTypeCancellation, opErr.Type)
	assert.ErrorIs(t, summary.Steps[0].Error, context.Canceled)
}

func TestRunner_LogsStepLifecycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewFuncStep("ok", "OK", noop)))
	logger, logs := testutil.NewTestLogger(t)

	NewRunner(r, logger, nil).Run(context.Background())

	assert.True(t, logs.ContainsMessage("step started"))
	assert.True(t, logs.ContainsMessage("step completed"))
	assert.True(t, logs.ContainsMessage("batch finished"))
}

func TestSummary_Render(t *testing.T) {
	summary := runSteps(t,
		NewFuncStep("convert", "Convert spreadsheets", noop),
		NewFuncStep("metadata", "Generate country metadata", func(context.Context) error {
			return errors.New("disk full")
		}),
	)

	var buf bytes.Buffer
	summary.Render(&buf)
	out := buf.String()

	assert.Contains(t, out, "Convert spreadsheets")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "Total time:")
	assert.Contains(t, out, "Succeeded: 1/2")
	assert.Contains(t, out, "Failed: [Generate country metadata]")
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCodeFor(nil))
	assert.Equal(t, ExitNoInput, ExitCodeFor(NewExecutionError("convert", apperrors.ErrNoInputFiles)))
	assert.Equal(t, ExitStepFailure, ExitCodeFor(NewPartialError("convert", []string{"x.xlsx"})))
}
