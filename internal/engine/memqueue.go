package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue is an in-process TaskQueue. It honors the same contract as the
// durable queue: Peek is an atomic exclusive claim and Remove appends an
// activity record while dropping the task from the pending set. It backs the
// engine's tests and suits embedders that do not need durability.
type MemoryQueue struct {
	mu       sync.Mutex
	pending  []*Task
	claims   map[uuid.UUID]claim
	activity []ActivityRecord
}

type claim struct {
	task      *Task
	workerID  string
	claimedAt time.Time
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		claims: make(map[uuid.UUID]claim),
	}
}

// Enqueue appends a task to the pending set. Tasks are handed out in
// enqueue order.
func (q *MemoryQueue) Enqueue(task *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	q.pending = append(q.pending, task)
}

// Peek claims the oldest pending task for the calling worker. The mutex
// makes the claim atomic: no two callers ever receive the same task.
func (q *MemoryQueue) Peek(_ context.Context, identity WorkerIdentity) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, nil
	}

	task := q.pending[0]
	q.pending = q.pending[1:]
	q.claims[task.ID] = claim{
		task:      task,
		workerID:  identity.UUID,
		claimedAt: time.Now().UTC(),
	}

	// Hand out a copy stamped with the claimant so a later re-claim of the
	// same task cannot be finalized through a stale handle.
	claimed := *task
	claimed.ClaimedBy = identity.UUID
	return &claimed, nil
}

// Remove finalizes a claimed task: it appends the activity record and
// forgets the claim. Finalizing a task that is no longer claimed, or whose
// claim has been released and re-assigned to another worker, is a no-op,
// keeping Remove idempotent per task.
func (q *MemoryQueue) Remove(_ context.Context, task *Task, status Status, result *TaskResult, taskErr error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	c, ok := q.claims[task.ID]
	if !ok || c.workerID != task.ClaimedBy {
		return nil
	}
	delete(q.claims, task.ID)

	record := ActivityRecord{
		ID:         uuid.New(),
		TaskID:     task.ID,
		TaskType:   task.Type,
		Subject:    task.Subject,
		Submitter:  task.Submitter,
		Status:     status,
		EnqueuedAt: task.EnqueuedAt,
		FinishedAt: time.Now().UTC(),
	}
	if result != nil {
		record.ResultSummary = result.Summary
	}
	if taskErr != nil {
		record.ErrorSummary = taskErr.Error()
	}
	q.activity = append(q.activity, record)
	return nil
}

// ReleaseStaleClaims returns claims older than olderThan to the head of the
// pending set.
func (q *MemoryQueue) ReleaseStaleClaims(_ context.Context, olderThan time.Duration) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	released := 0
	for id, c := range q.claims {
		if c.claimedAt.Before(cutoff) {
			q.pending = append([]*Task{c.task}, q.pending...)
			delete(q.claims, id)
			released++
		}
	}
	return released, nil
}

// PendingCount returns the number of unclaimed tasks.
func (q *MemoryQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// ClaimedCount returns the number of claimed, unfinalized tasks.
func (q *MemoryQueue) ClaimedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.claims)
}

// Activity returns a copy of the recorded activity, oldest first.
func (q *MemoryQueue) Activity() []ActivityRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]ActivityRecord, len(q.activity))
	copy(out, q.activity)
	return out
}
