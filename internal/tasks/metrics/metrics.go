package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Processed *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
	Enqueued  *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Processed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "formflow_tasks_processed_total",
			Help: "Background tasks processed, by kind and outcome",
		}, []string{"kind", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formflow_task_duration_seconds",
			Help:    "Duration of background task execution",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60},
		}, []string{"kind"}),
		Enqueued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "formflow_tasks_enqueued_total",
			Help: "Background tasks enqueued, by kind and queue",
		}, []string{"kind", "queue"}),
	}
}

func (m *Metrics) ObserveTask(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Processed.WithLabelValues(kind, outcome).Inc()
	m.Duration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) IncEnqueued(kind, queue string) {
	if m == nil {
		return
	}
	m.Enqueued.WithLabelValues(kind, queue).Inc()
}
