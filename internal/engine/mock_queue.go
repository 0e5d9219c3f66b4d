package engine

import (
	"context"
	"sync"
)

// RemoveCall records one finalization observed by the MockQueue.
type RemoveCall struct {
	Task   *Task
	Status Status
	Result *TaskResult
	Err    error
}

// MockQueue implements the TaskQueue interface for testing. Its behavior is
// overridable per call and every interaction is recorded.
type MockQueue struct {
	mu          sync.Mutex
	peekCalls   int
	removeCalls []RemoveCall

	PeekFn   func(ctx context.Context, identity WorkerIdentity) (*Task, error)
	RemoveFn func(ctx context.Context, task *Task, status Status, result *TaskResult, taskErr error) error
}

// NewMockQueue creates a MockQueue whose default Peek returns no task and
// whose default Remove succeeds.
func NewMockQueue() *MockQueue {
	return &MockQueue{}
}

// Peek invokes PeekFn, defaulting to an empty queue.
func (q *MockQueue) Peek(ctx context.Context, identity WorkerIdentity) (*Task, error) {
	q.mu.Lock()
	q.peekCalls++
	q.mu.Unlock()

	if q.PeekFn != nil {
		return q.PeekFn(ctx, identity)
	}
	return nil, nil
}

// Remove invokes RemoveFn, defaulting to success, and records the call.
func (q *MockQueue) Remove(ctx context.Context, task *Task, status Status, result *TaskResult, taskErr error) error {
	q.mu.Lock()
	q.removeCalls = append(q.removeCalls, RemoveCall{
		Task:   task,
		Status: status,
		Result: result,
		Err:    taskErr,
	})
	q.mu.Unlock()

	if q.RemoveFn != nil {
		return q.RemoveFn(ctx, task, status, result, taskErr)
	}
	return nil
}

// PeekCalls returns how many times Peek was invoked.
func (q *MockQueue) PeekCalls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.peekCalls
}

// RemoveCalls returns the recorded finalizations in order.
func (q *MockQueue) RemoveCalls() []RemoveCall {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]RemoveCall, len(q.removeCalls))
	copy(out, q.removeCalls)
	return out
}

// staticEnablement is a fixed-answer EnablementController for tests.
type staticEnablement bool

func (e staticEnablement) IsEnabled(WorkerIdentity) bool {
	return bool(e)
}
