package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of one plugin call.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics holds the prefill fetch metrics.
type Metrics struct {
	PluginCalls        *prometheus.CounterVec
	PluginDuration     *prometheus.HistogramVec
	ValuesSaved        prometheus.Counter
	InitialDataSkipped *prometheus.CounterVec
}

// New creates and registers the prefill metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PluginCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "formflow_prefill_plugin_calls_total",
			Help: "Prefill plugin calls by plugin and outcome",
		}, []string{"plugin", "outcome"}),
		PluginDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formflow_prefill_plugin_duration_seconds",
			Help:    "Duration of prefill plugin calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"plugin"}),
		ValuesSaved: f.NewCounter(prometheus.CounterOpts{
			Name: "formflow_prefill_values_saved_total",
			Help: "Variable values stored from prefill and initial data",
		}),
		InitialDataSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "formflow_prefill_initial_data_skipped_total",
			Help: "Initial data keys rejected by reason",
		}, []string{"reason"}), // reason: "disabled_component", "component_not_found"
	}
}

func (m *Metrics) ObservePluginCall(plugin, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.PluginCalls.WithLabelValues(plugin, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.PluginDuration.WithLabelValues(plugin).Observe(d.Seconds())
	}
}

func (m *Metrics) AddValuesSaved(n int) {
	if m == nil {
		return
	}
	m.ValuesSaved.Add(float64(n))
}

func (m *Metrics) IncInitialDataSkipped(reason string) {
	if m == nil {
		return
	}
	m.InitialDataSkipped.WithLabelValues(reason).Inc()
}
