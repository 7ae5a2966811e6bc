package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Definition
var (
	recordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "occulens_records_processed_total",
			Help: "Total number of stop records processed, by window relationship type.",
		},
		[]string{"relationship"},
	)
	runsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "occulens_analysis_runs_total",
			Help: "Total number of completed analysis runs.",
		},
	)
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "occulens_analysis_run_duration_seconds",
			Help:    "Wall-clock duration of analysis runs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)
	conservationWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "occulens_conservation_warnings_total",
			Help: "Total number of conservation-check warnings, by check type.",
		},
		[]string{"check"},
	)
	windowWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "occulens_window_range_warnings_total",
			Help: "Total number of analysis-window/data range mismatch warnings.",
		},
	)
)
