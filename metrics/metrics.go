// Package metrics provides Prometheus metrics for call-log runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the process.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// =============================================================================
// PIPELINE
// =============================================================================

// LinesTotal counts input lines by outcome: accepted, filtered,
// malformed_line, invalid_timestamp.
var LinesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "calllog",
	Name:      "lines_total",
	Help:      "Input lines processed by aggregator workers, by outcome",
}, []string{"result"})

// WorkerDurationSeconds tracks the time a worker spends on one chunk.
var WorkerDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "calllog",
	Name:      "worker_duration_seconds",
	Help:      "Time taken by one aggregator worker to process its chunk",
	Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
})

// WorkerFailuresTotal counts chunks whose worker returned an error.
var WorkerFailuresTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "calllog",
	Name:      "worker_failures_total",
	Help:      "Aggregator worker invocations that failed",
})

// StageDurationSeconds records the duration of the last run per stage.
var StageDurationSeconds = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "calllog",
	Name:      "stage_duration_seconds",
	Help:      "Duration of the last run by stage (source, transform, sink, total)",
}, []string{"stage"})

// =============================================================================
// RESULTS
// =============================================================================

// OffHoursCalls is the number of calls in the merged group of the last run.
var OffHoursCalls = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "calllog",
	Name:      "off_hours_calls",
	Help:      "Calls inside the off-hours window in the last run",
})

// AreaCodes is the number of distinct area codes of the last run.
var AreaCodes = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "calllog",
	Name:      "area_codes",
	Help:      "Distinct area codes in the last run",
})

// RedialEvents is the number of redial events detected in the last run.
var RedialEvents = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "calllog",
	Name:      "redial_events",
	Help:      "Redial events detected in the last run",
})

// SinkErrorsTotal counts report writer failures by sink type.
var SinkErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "calllog",
	Name:      "sink_errors_total",
	Help:      "Report writer failures by sink type",
}, []string{"sink"})

// ResetRunGauges resets per-run gauges before a new run.
func ResetRunGauges() {
	OffHoursCalls.Set(0)
	AreaCodes.Set(0)
	RedialEvents.Set(0)
	StageDurationSeconds.Reset()
}
