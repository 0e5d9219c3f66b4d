package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mhutter/taskmill/internal/events"
	"github.com/mhutter/taskmill/internal/platform/logger"
)

// InvocationResult is the per-invocation outcome a worker reports back to
// the pool. It is ephemeral and never persisted.
type InvocationResult int

// Possible invocation results.
const (
	// Disabled means the enablement controller vetoed the invocation
	// before any queue interaction.
	Disabled InvocationResult = iota

	// NoTask means the queue had nothing pending (or claiming failed
	// transiently).
	NoTask

	// TaskProcessed means a task was claimed and finalization was
	// attempted, whatever the task's outcome.
	TaskProcessed
)

// String returns the result's name for logs.
func (r InvocationResult) String() string {
	switch r {
	case Disabled:
		return "disabled"
	case NoTask:
		return "no_task"
	case TaskProcessed:
		return "task_processed"
	default:
		return fmt.Sprintf("invocation_result(%d)", int(r))
	}
}

// outcome is the internal result of the dispatch step, converted to the
// queue's status/result/error parameters at the finalize boundary.
type outcome struct {
	status     Status
	result     *TaskResult
	err        error
	userFacing bool
}

// Worker is one logical unit of execution. Each invocation checks
// enablement, claims at most one task, dispatches it to the matching
// processor, and finalizes it via the queue. Invocations of the same worker
// never overlap; the pool drives them strictly in sequence.
type Worker struct {
	identity   WorkerIdentity
	queue      TaskQueue
	registry   ProcessorFinder
	enablement EnablementController
	sink       events.Sink
	logger     *slog.Logger
}

// NewWorker creates a worker bound to the given collaborators.
func NewWorker(
	identity WorkerIdentity,
	queue TaskQueue,
	registry ProcessorFinder,
	enablement EnablementController,
	sink events.Sink,
	log *slog.Logger,
) *Worker {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Worker{
		identity:   identity,
		queue:      queue,
		registry:   registry,
		enablement: enablement,
		sink:       sink,
		logger: log.With(
			"worker_ordinal", identity.Ordinal,
			"worker_uuid", identity.UUID,
		),
	}
}

// Identity returns the worker's identity.
func (w *Worker) Identity() WorkerIdentity {
	return w.identity
}

// Process runs one invocation: enablement check, claim, dispatch, finalize.
// A disabled worker never touches the queue. Transient claim failures are
// logged and reported as NoTask rather than propagated.
func (w *Worker) Process(ctx context.Context) InvocationResult {
	if !w.enablement.IsEnabled(w.identity) {
		w.logger.DebugContext(ctx, "worker disabled, skipping invocation")
		return Disabled
	}

	task, err := w.queue.Peek(ctx, w.identity)
	if err != nil {
		w.logger.WarnContext(ctx, "failed to claim a task, treating as empty queue", "error", err)
		return NoTask
	}
	if task == nil {
		return NoTask
	}

	w.run(ctx, task)
	return TaskProcessed
}

// run executes one claimed task. Finalization and the finished event are
// guaranteed via defer: they happen exactly once per claimed task even when
// the processor panics.
func (w *Worker) run(ctx context.Context, task *Task) {
	log := w.logger.With(
		"task_id", task.ID,
		"task_type", task.Type,
		"subject", task.Subject,
	)
	if task.Submitter != "" {
		log = log.With("submitter", task.Submitter)
	}
	ctx = logger.WithLogger(ctx, log)

	start := time.Now()
	w.sink.TaskStarted(ctx, events.TaskStarted{
		TaskID:        task.ID.String(),
		TaskType:      task.Type,
		Subject:       task.Subject,
		Submitter:     task.Submitter,
		WorkerOrdinal: w.identity.Ordinal,
		WorkerUUID:    w.identity.UUID,
		StartedAt:     start,
	})

	// If dispatch itself blows up past its own recover, the task is still
	// finalized as failed.
	out := outcome{status: StatusFailed}
	defer func() {
		w.finalize(ctx, task, out, log)

		errSummary := ""
		if out.err != nil {
			errSummary = out.err.Error()
		}
		w.sink.TaskFinished(ctx, events.TaskFinished{
			TaskID:        task.ID.String(),
			TaskType:      task.Type,
			Subject:       task.Subject,
			Submitter:     task.Submitter,
			WorkerOrdinal: w.identity.Ordinal,
			WorkerUUID:    w.identity.UUID,
			Status:        string(out.status),
			Error:         errSummary,
			Duration:      time.Since(start),
			FinishedAt:    time.Now().UTC(),
		})
	}()

	out = w.dispatch(ctx, task, log)
}

// dispatch resolves the processor and executes the task, classifying the
// result. It never panics: processor panics are recovered and converted to
// failed outcomes.
func (w *Worker) dispatch(ctx context.Context, task *Task, log *slog.Logger) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("processor panicked: %v", r)
			log.ErrorContext(ctx, "task processing panicked", "panic", r)
			out = outcome{status: StatusFailed, err: err}
		}
	}()

	proc, ok := w.registry.Find(task)
	if !ok {
		log.WarnContext(ctx, "no processor registered for task type")
		return outcome{
			status: StatusFailed,
			err:    fmt.Errorf("%w: %q", ErrNoProcessor, task.Type),
		}
	}

	result, err := proc.Process(ctx, task)
	if err != nil {
		if uf, ok := AsUserFacing(err); ok {
			// Expected failure with a message for the submitter; not
			// alarming.
			log.InfoContext(ctx, "task failed with user-facing message",
				"message", uf.Message)
			return outcome{status: StatusFailed, err: err, userFacing: true}
		}
		log.ErrorContext(ctx, "task processing failed", "error", err)
		return outcome{status: StatusFailed, err: err}
	}

	return outcome{status: StatusSuccess, result: result}
}

// finalize records the outcome and removes the task from the pending set.
// A failing Remove is logged and swallowed: a stuck finalize must not block
// subsequent invocations.
func (w *Worker) finalize(ctx context.Context, task *Task, out outcome, log *slog.Logger) {
	if err := w.queue.Remove(ctx, task, out.status, out.result, out.err); err != nil {
		if out.userFacing {
			// Keep the original user-facing cause visible next to the
			// finalize failure instead of masking it.
			log.WarnContext(ctx, "failed to finalize task that ended with a user-facing failure",
				"task_error", out.err,
				"error", err)
			return
		}
		log.ErrorContext(ctx, "failed to finalize task", "error", err)
	}
}
