package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDecisionMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDecisionMetrics(reg)

	metrics.IncDecision("pack", "approved")
	metrics.IncDecision("pack", "approved")
	metrics.IncConflict("pack")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "purchase_decisions_total", "kind", "pack"); err != nil {
		t.Fatalf("fetch decisions: %v", err)
	} else if got != 2 {
		t.Fatalf("expected decisions=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "purchase_decision_conflicts_total", "kind", "pack"); err != nil {
		t.Fatalf("fetch conflicts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected conflicts=1, got %f", got)
	}
}

func TestOptimizerMetricsExportsHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOptimizerMetrics(reg)

	metrics.ObserveRun("Succeeded", 300*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "optimizer_runs_total", "status", "succeeded"); err != nil {
		t.Fatalf("fetch runs: %v", err)
	} else if got != 1 {
		t.Fatalf("expected runs=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "optimizer_run_duration_seconds", "status", "succeeded"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	decisions := NewDecisionMetrics(nil)
	decisions.IncDecision("pack", "approved")
	decisions.IncConflict("pack")

	optimizer := NewOptimizerMetrics(nil)
	optimizer.ObserveRun("failed", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%s not found", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%s not found", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
