package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stages of the registration chain.
const (
	StagePreRegistration   = "pre_registration"
	StageRegistration      = "registration"
	StageConfirmationEmail = "confirmation_email"
)

// Outcomes of one stage run.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics holds the registration metrics.
type Metrics struct {
	StageRuns       *prometheus.CounterVec
	PluginDuration  *prometheus.HistogramVec
	Aborted         *prometheus.CounterVec
	CoalescedStarts prometheus.Counter
	RetrySweeps     *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StageRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "formflow_registration_stage_runs_total",
			Help: "Registration stage runs by stage, plugin and outcome",
		}, []string{"stage", "plugin", "outcome"}),
		PluginDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formflow_registration_plugin_duration_seconds",
			Help:    "Duration of registration plugin calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"stage", "plugin"}),
		Aborted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "formflow_registration_aborted_total",
			Help: "Stage runs stopped by a gate, by stage and reason",
		}, []string{"stage", "reason"}),
		CoalescedStarts: f.NewCounter(prometheus.CounterOpts{
			Name: "formflow_registration_coalesced_total",
			Help: "Registration requests dropped because one was already running",
		}),
		RetrySweeps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "formflow_registration_retry_sweep_submissions_total",
			Help: "Submissions picked up by the retry sweep, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveStage(stage, plugin, outcome string) {
	if m == nil {
		return
	}
	m.StageRuns.WithLabelValues(stage, plugin, outcome).Inc()
}

func (m *Metrics) ObservePluginCall(stage, plugin string, d time.Duration) {
	if m == nil {
		return
	}
	m.PluginDuration.WithLabelValues(stage, plugin).Observe(d.Seconds())
}

func (m *Metrics) IncAborted(stage, reason string) {
	if m == nil {
		return
	}
	m.Aborted.WithLabelValues(stage, reason).Inc()
}

func (m *Metrics) IncCoalesced() {
	if m == nil {
		return
	}
	m.CoalescedStarts.Inc()
}

func (m *Metrics) IncRetrySweep(outcome string) {
	if m == nil {
		return
	}
	m.RetrySweeps.WithLabelValues(outcome).Inc()
}
