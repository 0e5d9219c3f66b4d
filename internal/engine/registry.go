package engine

import "sync"

// ProcessorFinder resolves the processor responsible for a task.
// Version: 1.0
type ProcessorFinder interface {
	// Find returns the processor registered for the task's type, or false
	// when none is registered. Lookups have no side effects.
	Find(task *Task) (Processor, bool)
}

// Registry maps task type strings to processors. It is safe for concurrent
// use by many workers.
type Registry struct {
	mu         sync.RWMutex
	processors map[string]Processor
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{
		processors: make(map[string]Processor),
	}
}

// Register binds a processor to a task type. Registering the same type twice
// replaces the earlier processor: the last registration wins.
func (r *Registry) Register(taskType string, p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[taskType] = p
}

// Find returns the processor registered for the task's type.
func (r *Registry) Find(task *Task) (Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processors[task.Type]
	return p, ok
}

// Types returns the task types with a registered processor.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.processors))
	for t := range r.processors {
		types = append(types, t)
	}
	return types
}
