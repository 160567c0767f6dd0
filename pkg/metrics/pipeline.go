package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records aggregation run and per-source fetch outcomes.
type PipelineMetrics struct {
	runDuration   prometheus.Histogram
	runSuccess    prometheus.Counter
	runFailure    prometheus.Counter
	fetchDuration *prometheus.HistogramVec
	sourceOutcome *prometheus.CounterVec
	dealsKept     prometheus.Gauge
}

// NewPipelineMetrics registers the aggregation metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "aggregation_run_duration_seconds",
		Help:    "Duration of full aggregation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	runSuccess := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aggregation_run_success",
		Help: "Successful aggregation runs.",
	})
	runFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aggregation_run_failure",
		Help: "Failed aggregation runs.",
	})
	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "source_fetch_duration_seconds",
		Help:    "Duration of per-source snapshot fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	sourceOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "source_fetch_outcome",
		Help: "Per-source fetch outcomes by result (ok, fail, stale).",
	}, []string{"source", "result"})
	dealsKept := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aggregation_deals_total",
		Help: "Deals in the most recently published catalog.",
	})
	reg.MustRegister(runDuration, runSuccess, runFailure, fetchDuration, sourceOutcome, dealsKept)
	return &PipelineMetrics{
		runDuration:   runDuration,
		runSuccess:    runSuccess,
		runFailure:    runFailure,
		fetchDuration: fetchDuration,
		sourceOutcome: sourceOutcome,
		dealsKept:     dealsKept,
	}
}

// ObserveRunDuration records the duration of a full aggregation run.
func (p *PipelineMetrics) ObserveRunDuration(duration time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(duration.Seconds())
}

// IncRunSuccess increments the successful-run counter.
func (p *PipelineMetrics) IncRunSuccess() {
	if p == nil || p.runSuccess == nil {
		return
	}
	p.runSuccess.Inc()
}

// IncRunFailure increments the failed-run counter.
func (p *PipelineMetrics) IncRunFailure() {
	if p == nil || p.runFailure == nil {
		return
	}
	p.runFailure.Inc()
}

// ObserveFetchDuration records how long the named source's fetch took.
func (p *PipelineMetrics) ObserveFetchDuration(source string, duration time.Duration) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	p.fetchDuration.WithLabelValues(normalizeLabel(source)).Observe(duration.Seconds())
}

// IncSourceOutcome counts a per-source fetch result (ok, fail, stale).
func (p *PipelineMetrics) IncSourceOutcome(source, result string) {
	if p == nil || p.sourceOutcome == nil {
		return
	}
	p.sourceOutcome.WithLabelValues(normalizeLabel(source), normalizeLabel(result)).Inc()
}

// SetDealsTotal publishes the catalog size of the latest run.
func (p *PipelineMetrics) SetDealsTotal(count int) {
	if p == nil || p.dealsKept == nil {
		return
	}
	p.dealsKept.Set(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
