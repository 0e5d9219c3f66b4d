package engine

import "sync"

// EnablementController answers whether a worker is currently allowed to pull
// work. Implementations must be safe for concurrent calls from many worker
// invocations and must reflect administrative changes without a restart.
// Version: 1.0
type EnablementController interface {
	// IsEnabled reports whether the worker may claim a task this round.
	// It has no side effects.
	IsEnabled(identity WorkerIdentity) bool
}

// Enablement is an in-memory EnablementController with per-ordinal toggles.
// Workers are enabled by default; disabling an ordinal pauses that worker
// without stopping the process.
type Enablement struct {
	mu       sync.RWMutex
	disabled map[int]bool
}

// NewEnablement creates a controller with every worker enabled.
func NewEnablement() *Enablement {
	return &Enablement{
		disabled: make(map[int]bool),
	}
}

// IsEnabled reports whether the worker's ordinal is currently enabled.
func (e *Enablement) IsEnabled(identity WorkerIdentity) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.disabled[identity.Ordinal]
}

// SetEnabled enables or disables the worker at the given ordinal. The change
// is visible to the worker's next invocation; an in-flight invocation is not
// interrupted.
func (e *Enablement) SetEnabled(ordinal int, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if enabled {
		delete(e.disabled, ordinal)
	} else {
		e.disabled[ordinal] = true
	}
}
