package operations

import (
	"context"
	"sync"
	"time"
)

// Step represents a single step of a batch run
type Step interface {
	// ID returns the unique identifier for this Step
	ID() string

	// Name returns the human-readable name for this Step
	Name() string

	// Execute runs the Step
	Execute(ctx context.Context) error
}

// StepStatus represents the current status of a Step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// StepState represents the runtime state of a Step
type StepState struct {
	mu        sync.RWMutex
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Error     error      `json:"-"`
}

// NewStepState creates a new Step state with default values
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:     id,
		Name:   name,
		Status: StepStatusPending,
	}
}

// Start marks the Step as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the Step as completed and sets the end time
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
}

// Fail marks the Step as failed with the given error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
}

// Succeeded reports whether the Step completed
func (s *StepState) Succeeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status == StepStatusCompleted
}

// Duration returns the duration of the Step execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// BaseStage provides common functionality for Step implementations
type BaseStage struct {
	id   string
	name string
}

// NewBaseStage creates a new base Step
func NewBaseStage(id, name string) BaseStage {
	return BaseStage{id: id, name: name}
}

// ID returns the Step ID
func (b *BaseStage) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

// Name returns the Step name
func (b *BaseStage) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// FuncStep adapts a function to the Step interface
type FuncStep struct {
	BaseStage
	fn func(ctx context.Context) error
}

// NewFuncStep creates a Step that runs fn
func NewFuncStep(id, name string, fn func(ctx context.Context) error) *FuncStep {
	return &FuncStep{BaseStage: NewBaseStage(id, name), fn: fn}
}

// Execute runs the wrapped function
func (s *FuncStep) Execute(ctx context.Context) error {
	return s.fn(ctx)
}
