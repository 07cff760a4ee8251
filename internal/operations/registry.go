package operations

import (
	"fmt"
	"sync"
)

// Registry manages registered batch steps
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string // Maintains registration order
}

// NewRegistry creates a new Step registry
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Step),
		order: make([]string, 0),
	}
}

// Register adds a Step to the registry
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}

	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return fmt.Errorf("step with ID %s already registered", id)
	}

	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a Step by ID
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, exists := r.steps[id]
	if !exists {
		return nil, fmt.Errorf("step with ID %s not found", id)
	}
	return step, nil
}

// Has checks if a Step is registered
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.steps[id]
	return exists
}

// List returns all registered steps in registration order
func (r *Registry) List() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make([]Step, 0, len(r.order))
	for _, id := range r.order {
		steps = append(steps, r.steps[id])
	}
	return steps
}

// ListIDs returns all registered Step IDs in registration order
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}
