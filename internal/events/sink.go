package events

import (
	"context"
	"log/slog"
	"time"
)

// TaskStarted describes a task the moment a worker begins executing it.
type TaskStarted struct {
	TaskID        string    `json:"task_id"`
	TaskType      string    `json:"task_type"`
	Subject       string    `json:"subject"`
	Submitter     string    `json:"submitter,omitempty"`
	WorkerOrdinal int       `json:"worker_ordinal"`
	WorkerUUID    string    `json:"worker_uuid"`
	StartedAt     time.Time `json:"started_at"`
}

// TaskFinished describes a task after its outcome has been decided.
type TaskFinished struct {
	TaskID        string        `json:"task_id"`
	TaskType      string        `json:"task_type"`
	Subject       string        `json:"subject"`
	Submitter     string        `json:"submitter,omitempty"`
	WorkerOrdinal int           `json:"worker_ordinal"`
	WorkerUUID    string        `json:"worker_uuid"`
	Status        string        `json:"status"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
	FinishedAt    time.Time     `json:"finished_at"`
}

// Sink receives task lifecycle events.
// Version: 1.0
type Sink interface {
	// TaskStarted is called once per claimed task before dispatch.
	TaskStarted(ctx context.Context, e TaskStarted)

	// TaskFinished is called once per claimed task after finalization was
	// attempted, regardless of outcome.
	TaskFinished(ctx context.Context, e TaskFinished)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) TaskStarted(context.Context, TaskStarted)   {}
func (NopSink) TaskFinished(context.Context, TaskFinished) {}

// LogSink writes events as structured log lines.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that logs lifecycle events through the given
// logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "task_events")}
}

// TaskStarted logs the start of a task.
func (s *LogSink) TaskStarted(ctx context.Context, e TaskStarted) {
	s.logger.InfoContext(ctx, "task started",
		"task_id", e.TaskID,
		"task_type", e.TaskType,
		"subject", e.Subject,
		"submitter", e.Submitter,
		"worker_ordinal", e.WorkerOrdinal,
		"worker_uuid", e.WorkerUUID)
}

// TaskFinished logs the outcome of a task.
func (s *LogSink) TaskFinished(ctx context.Context, e TaskFinished) {
	s.logger.InfoContext(ctx, "task finished",
		"task_id", e.TaskID,
		"task_type", e.TaskType,
		"status", e.Status,
		"error", e.Error,
		"duration_ms", e.Duration.Milliseconds(),
		"worker_ordinal", e.WorkerOrdinal)
}

// MultiSink fans events out to several sinks in order.
type MultiSink []Sink

// NewMultiSink combines sinks into one. Nil entries are skipped.
func NewMultiSink(sinks ...Sink) MultiSink {
	out := make(MultiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// TaskStarted delivers the event to every sink.
func (m MultiSink) TaskStarted(ctx context.Context, e TaskStarted) {
	for _, s := range m {
		s.TaskStarted(ctx, e)
	}
}

// TaskFinished delivers the event to every sink.
func (m MultiSink) TaskFinished(ctx context.Context, e TaskFinished) {
	for _, s := range m {
		s.TaskFinished(ctx, e)
	}
}
