package events

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsSink_Counters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink := NewMetricsSink(reg)

	sink.TaskStarted(context.Background(), sampleStarted())
	sink.TaskFinished(context.Background(), sampleFinished("success"))
	sink.TaskFinished(context.Background(), sampleFinished("failed"))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.started.WithLabelValues("analyze")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.finished.WithLabelValues("analyze", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.finished.WithLabelValues("analyze", "failed")))
}

func TestMetricsSink_ObservesDuration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink := NewMetricsSink(reg)

	sink.TaskFinished(context.Background(), sampleFinished("success"))

	count := testutil.CollectAndCount(sink.duration, "taskmill_task_duration_seconds")
	assert.Equal(t, 1, count)
}
