package events

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink records task lifecycle events as Prometheus metrics.
type MetricsSink struct {
	started  *prometheus.CounterVec
	finished *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsSink creates a sink whose collectors are registered on reg.
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	s := &MetricsSink{
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmill_tasks_started_total",
			Help: "Tasks claimed and started by workers.",
		}, []string{"task_type"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmill_tasks_finished_total",
			Help: "Tasks finalized, partitioned by outcome status.",
		}, []string{"task_type", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskmill_task_duration_seconds",
			Help:    "Wall-clock task execution time from claim to finalize.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"task_type"}),
	}
	reg.MustRegister(s.started, s.finished, s.duration)
	return s
}

// TaskStarted increments the started counter.
func (s *MetricsSink) TaskStarted(_ context.Context, e TaskStarted) {
	s.started.WithLabelValues(e.TaskType).Inc()
}

// TaskFinished increments the finished counter and observes the duration.
func (s *MetricsSink) TaskFinished(_ context.Context, e TaskFinished) {
	s.finished.WithLabelValues(e.TaskType, e.Status).Inc()
	s.duration.WithLabelValues(e.TaskType).Observe(e.Duration.Seconds())
}
