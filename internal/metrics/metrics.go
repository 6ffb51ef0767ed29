// Package metrics exposes Prometheus metrics for the compliance engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for gate evaluation and correction
// synthesis.
type Metrics struct {
	// Gate evaluation
	GateEvaluationsTotal *prometheus.CounterVec
	GateTimeoutsTotal    *prometheus.CounterVec
	GateDuration         *prometheus.HistogramVec

	// Correction synthesis
	CorrectionsAppliedTotal  *prometheus.CounterVec
	SuppressedMatchesTotal   *prometheus.CounterVec
	FailedCorrectionsTotal   prometheus.Counter
	SuggestionsSurfacedTotal prometheus.Counter

	// Catalogue lifecycle
	CatalogueReloadsTotal *prometheus.CounterVec

	// Request surface
	RequestsTotal *prometheus.CounterVec
}

// New creates and registers the engine metrics.
//
// sync.Once guards registration so repeated construction (tests, multiple
// services in one process) never panics with a duplicate collector.
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			GateEvaluationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "complyd_gate_evaluations_total",
					Help: "Total gate evaluations by gate id and result status",
				},
				[]string{"gate", "status"},
			),
			GateTimeoutsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "complyd_gate_timeouts_total",
					Help: "Total gate evaluations that hit the per-gate timeout",
				},
				[]string{"gate"},
			),
			GateDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "complyd_gate_duration_seconds",
					Help:    "Gate evaluation duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"gate"},
			),
			CorrectionsAppliedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "complyd_corrections_applied_total",
					Help: "Total corrections applied by strategy tier",
				},
				[]string{"tier"},
			),
			SuppressedMatchesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "complyd_suppressed_matches_total",
					Help: "Total candidate corrections suppressed by context analysis, by reason",
				},
				[]string{"reason"},
			),
			FailedCorrectionsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "complyd_failed_corrections_total",
					Help: "Total corrections that could not be applied",
				},
			),
			SuggestionsSurfacedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "complyd_suggestions_surfaced_total",
					Help: "Total suggestion-tier matches surfaced without altering text",
				},
			),
			CatalogueReloadsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "complyd_catalogue_reloads_total",
					Help: "Total catalogue reload attempts by outcome",
				},
				[]string{"outcome"},
			),
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "complyd_requests_total",
					Help: "Total validate/correct requests by operation",
				},
				[]string{"operation"},
			),
		}
	})
	return globalMetrics
}
