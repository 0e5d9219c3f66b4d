package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status represents the final outcome of a task.
type Status string

// Possible task outcome values. A task's status is set exactly once, at
// finalization.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Task represents one unit of enqueued work. A task is immutable once
// claimed; it is owned exclusively by the worker that claimed it until that
// worker finalizes it through the queue.
type Task struct {
	// ID is the task's unique identifier.
	ID uuid.UUID

	// Type selects the processor that will execute the task.
	Type string

	// Subject identifies the target of the analysis.
	Subject string

	// Submitter identifies who enqueued the task. May be empty.
	Submitter string

	// Payload is an opaque reference interpreted only by the processor.
	Payload []byte

	// EnqueuedAt is when the task became visible to workers.
	EnqueuedAt time.Time

	// ClaimedBy identifies the worker that claimed the task. It is set by
	// the queue when Peek hands the task out and lets Remove refuse to
	// finalize a task whose claim has since been released and re-assigned.
	ClaimedBy string
}

// TaskResult is the structured output a processor produces on success.
type TaskResult struct {
	// Summary is a short human-readable description of the outcome,
	// recorded on the activity record.
	Summary string

	// Data is an opaque result payload.
	Data []byte
}

// Processor executes tasks of a particular type.
// Version: 1.0
type Processor interface {
	// Process runs the task and returns its result. Returning an error
	// marks the task failed; returning a *UserFacingError marks it failed
	// with a message meant to be shown to the submitter.
	Process(ctx context.Context, task *Task) (*TaskResult, error)
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(ctx context.Context, task *Task) (*TaskResult, error)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, task *Task) (*TaskResult, error) {
	return f(ctx, task)
}

// TaskQueue is the durable store of pending tasks consumed by workers.
// Implementations must make Peek an atomic exclusive claim: two concurrent
// callers never receive the same task.
// Version: 1.0
type TaskQueue interface {
	// Peek atomically claims at most one pending task for the calling
	// worker. It returns (nil, nil) when no task is pending. Callers treat
	// an error as "no task available this round".
	Peek(ctx context.Context, identity WorkerIdentity) (*Task, error)

	// Remove finalizes a previously claimed task: it durably records the
	// activity record and removes the task from the pending set. It must
	// be invoked exactly once per successfully claimed task and is a
	// no-op for tasks that have already been finalized.
	Remove(ctx context.Context, task *Task, status Status, result *TaskResult, taskErr error) error
}

// ActivityRecord is the durable append-on-finalize record describing how a
// task concluded.
type ActivityRecord struct {
	ID            uuid.UUID
	TaskID        uuid.UUID
	TaskType      string
	Subject       string
	Submitter     string
	Status        Status
	ResultSummary string
	ErrorSummary  string
	EnqueuedAt    time.Time
	FinishedAt    time.Time
}
