package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modshift_phase_seconds",
		Help:    "Time spent in each build phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modshift_parsing_seconds",
		Help:    "Time spent transforming and parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dialect"})

	GraphFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modshift_graph_files",
		Help: "Number of files discovered by the last build.",
	})

	ParsersLeased = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modshift_parsers_leased",
		Help: "Number of tree-sitter parsers currently checked out of their pools.",
	})

	FilesEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modshift_files_emitted_total",
		Help: "Total number of files written, by module format.",
	}, []string{"format"})

	ResolutionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modshift_resolution_failures_total",
		Help: "Total number of specifiers that could not be resolved.",
	})

	InteropShimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modshift_interop_shims_total",
		Help: "Total number of named imports rewritten through an interop shim.",
	})

	PackageCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modshift_package_cache_hits_total",
		Help: "Total number of package format lookups served from cache.",
	})

	MechanismConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modshift_mechanism_conflicts_total",
		Help: "Total number of files reached through both import and require.",
	})
)

// WriteMetrics dumps the default registry in text exposition format.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
