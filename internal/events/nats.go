package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATS subjects the sink publishes to.
const (
	SubjectTaskStarted  = "tasks.started"
	SubjectTaskFinished = "tasks.finished"
)

// NATSSink publishes lifecycle events to NATS subjects as JSON messages.
// Publishing is fire-and-forget: failures are logged and never propagated.
type NATSSink struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewNATSSink creates a sink publishing over the given connection.
func NewNATSSink(nc *nats.Conn, logger *slog.Logger) *NATSSink {
	return &NATSSink{
		nc:     nc,
		logger: logger.With("component", "nats_event_sink"),
	}
}

// TaskStarted publishes the event to tasks.started.
func (s *NATSSink) TaskStarted(ctx context.Context, e TaskStarted) {
	s.publish(ctx, SubjectTaskStarted, e, e.TaskID)
}

// TaskFinished publishes the event to tasks.finished.
func (s *NATSSink) TaskFinished(ctx context.Context, e TaskFinished) {
	s.publish(ctx, SubjectTaskFinished, e, e.TaskID)
}

func (s *NATSSink) publish(ctx context.Context, subject string, event any, taskID string) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to marshal lifecycle event",
			"subject", subject,
			"task_id", taskID,
			"error", err)
		return
	}

	if err := s.nc.Publish(subject, data); err != nil {
		s.logger.WarnContext(ctx, "failed to publish lifecycle event",
			"subject", subject,
			"task_id", taskID,
			"error", err)
	}
}
