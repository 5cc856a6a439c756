package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DecisionMetrics records admin approval activity per purchase kind.
type DecisionMetrics struct {
	decisions *prometheus.CounterVec
	conflicts *prometheus.CounterVec
}

// NewDecisionMetrics registers the decision metrics on the provided registerer.
func NewDecisionMetrics(reg prometheus.Registerer) *DecisionMetrics {
	if reg == nil {
		return &DecisionMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_decisions_total",
		Help: "Purchase decisions applied, by kind and outcome.",
	}, []string{"kind", "outcome"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_decision_conflicts_total",
		Help: "Decisions refused because the purchase was already terminal.",
	}, []string{"kind"})
	reg.MustRegister(decisions, conflicts)
	return &DecisionMetrics{
		decisions: decisions,
		conflicts: conflicts,
	}
}

// IncDecision increments the counter for an applied (or idempotent) decision.
func (d *DecisionMetrics) IncDecision(kind, outcome string) {
	if d == nil || d.decisions == nil {
		return
	}
	d.decisions.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// IncConflict increments the counter for a refused transition.
func (d *DecisionMetrics) IncConflict(kind string) {
	if d == nil || d.conflicts == nil {
		return
	}
	d.conflicts.WithLabelValues(normalizeLabel(kind)).Inc()
}

// OptimizerMetrics records prompt-optimizer activity.
type OptimizerMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// NewOptimizerMetrics registers the optimizer metrics on the provided registerer.
func NewOptimizerMetrics(reg prometheus.Registerer) *OptimizerMetrics {
	if reg == nil {
		return &OptimizerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimizer_run_duration_seconds",
		Help:    "Duration of optimizer runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_runs_total",
		Help: "Optimizer runs, by status.",
	}, []string{"status"})
	reg.MustRegister(duration, runs)
	return &OptimizerMetrics{duration: duration, runs: runs}
}

// ObserveRun records one optimizer run.
func (o *OptimizerMetrics) ObserveRun(status string, duration time.Duration) {
	if o == nil {
		return
	}
	label := normalizeLabel(status)
	if o.runs != nil {
		o.runs.WithLabelValues(label).Inc()
	}
	if o.duration != nil {
		o.duration.WithLabelValues(label).Observe(duration.Seconds())
	}
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
