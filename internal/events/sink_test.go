package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink counts deliveries for fan-out tests.
type recordingSink struct {
	started  int
	finished int
}

func (s *recordingSink) TaskStarted(context.Context, TaskStarted)   { s.started++ }
func (s *recordingSink) TaskFinished(context.Context, TaskFinished) { s.finished++ }

func sampleStarted() TaskStarted {
	return TaskStarted{
		TaskID:        "11111111-2222-3333-4444-555555555555",
		TaskType:      "analyze",
		Subject:       "repo-42",
		Submitter:     "alice",
		WorkerOrdinal: 1,
		WorkerUUID:    "worker-uuid",
		StartedAt:     time.Now().UTC(),
	}
}

func sampleFinished(status string) TaskFinished {
	return TaskFinished{
		TaskID:        "11111111-2222-3333-4444-555555555555",
		TaskType:      "analyze",
		Subject:       "repo-42",
		WorkerOrdinal: 1,
		WorkerUUID:    "worker-uuid",
		Status:        status,
		Duration:      125 * time.Millisecond,
		FinishedAt:    time.Now().UTC(),
	}
}

func TestMultiSink_FansOut(t *testing.T) {
	t.Parallel()

	a := &recordingSink{}
	b := &recordingSink{}
	sink := NewMultiSink(a, nil, b)

	sink.TaskStarted(context.Background(), sampleStarted())
	sink.TaskFinished(context.Background(), sampleFinished("success"))
	sink.TaskFinished(context.Background(), sampleFinished("failed"))

	assert.Equal(t, 1, a.started)
	assert.Equal(t, 2, a.finished)
	assert.Equal(t, 1, b.started)
	assert.Equal(t, 2, b.finished)
}

func TestLogSink_WritesStructuredLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := NewLogSink(logger)

	sink.TaskStarted(context.Background(), sampleStarted())
	sink.TaskFinished(context.Background(), sampleFinished("success"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var started map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &started))
	assert.Equal(t, "task started", started["msg"])
	assert.Equal(t, "analyze", started["task_type"])
	assert.Equal(t, "repo-42", started["subject"])

	var finished map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &finished))
	assert.Equal(t, "task finished", finished["msg"])
	assert.Equal(t, "success", finished["status"])
}

func TestNopSink(t *testing.T) {
	t.Parallel()

	var sink Sink = NopSink{}
	sink.TaskStarted(context.Background(), sampleStarted())
	sink.TaskFinished(context.Background(), sampleFinished("failed"))
}
