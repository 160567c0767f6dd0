package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPipelineMetricsExportsCountersAndHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPipelineMetrics(reg)
	source := "brooks-outlet"

	metrics.ObserveRunDuration(2 * time.Second)
	metrics.IncRunSuccess()
	metrics.IncRunFailure()
	metrics.ObserveFetchDuration(source, 250*time.Millisecond)
	metrics.IncSourceOutcome(source, "ok")
	metrics.IncSourceOutcome(source, "stale")
	metrics.SetDealsTotal(42)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "source_fetch_outcome", "result", "ok"); err != nil {
		t.Fatalf("fetch ok outcome: %v", err)
	} else if got != 1 {
		t.Fatalf("expected ok=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "source_fetch_outcome", "result", "stale"); err != nil {
		t.Fatalf("fetch stale outcome: %v", err)
	} else if got != 1 {
		t.Fatalf("expected stale=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "source_fetch_duration_seconds", "source", source); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if mf := findMetricFamily(mfs, "aggregation_deals_total"); mf == nil {
		t.Fatal("deals gauge not registered")
	} else if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 42 {
		t.Fatalf("expected deals gauge 42, got %f", got)
	}
}

func TestPipelineMetricsNilRegisterer(t *testing.T) {
	metrics := NewPipelineMetrics(nil)
	// all recorders must be safe no-ops
	metrics.ObserveRunDuration(time.Second)
	metrics.IncRunSuccess()
	metrics.IncRunFailure()
	metrics.ObserveFetchDuration("x", time.Second)
	metrics.IncSourceOutcome("x", "fail")
	metrics.SetDealsTotal(1)
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
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
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
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
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
