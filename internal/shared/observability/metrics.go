package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenegate_files_analyzed_total",
		Help: "Total number of scene scripts analyzed.",
	})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenegate_findings_total",
		Help: "Total number of findings emitted, by rule code.",
	}, []string{"code"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scenegate_analysis_seconds",
		Help:    "Time spent analyzing a single scene script.",
		Buckets: prometheus.DefBuckets,
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scenegate_run_seconds",
		Help:    "Time spent on a whole gate run.",
		Buckets: prometheus.DefBuckets,
	})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenegate_runs_total",
		Help: "Total number of gate runs, by disposition.",
	}, []string{"disposition"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenegate_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
