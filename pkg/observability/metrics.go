// Package observability exposes build-run metrics and the optional scrape
// endpoint that serves them while a build is active.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BuildMetrics holds the Prometheus counters, histograms, and gauges for the
// score build pipeline.
type BuildMetrics struct {
	AirportsProcessed  *prometheus.CounterVec // labels: status={written,skipped,failed}
	ReviewsExtracted   prometheus.Counter
	ExtractionRetries  prometheus.Counter
	ExtractionDuration prometheus.Histogram
	TagsWritten        prometheus.Counter
	TagsDropped        prometheus.Counter
	BuildRunning       prometheus.Gauge

	BuildDuration prometheus.Histogram
}

// NewBuildMetrics creates and registers all build metrics with the default
// Prometheus registry.
func NewBuildMetrics() *BuildMetrics {
	m := newBuildMetrics()

	prometheus.MustRegister(
		m.AirportsProcessed,
		m.ReviewsExtracted,
		m.ExtractionRetries,
		m.ExtractionDuration,
		m.TagsWritten,
		m.TagsDropped,
		m.BuildRunning,
		m.BuildDuration,
	)

	return m
}

// NewBuildMetricsForTesting creates BuildMetrics without registering them,
// avoiding "already registered" panics when called from multiple tests.
func NewBuildMetricsForTesting() *BuildMetrics {
	return newBuildMetrics()
}

func newBuildMetrics() *BuildMetrics {
	return &BuildMetrics{
		AirportsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldscore",
			Name:      "airports_processed_total",
			Help:      "Airports handled during builds, by terminal status.",
		}, []string{"status"}),
		ReviewsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldscore",
			Name:      "reviews_extracted_total",
			Help:      "Reviews successfully run through tag extraction.",
		}),
		ExtractionRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldscore",
			Name:      "extraction_retries_total",
			Help:      "Extraction calls repeated after a transient failure.",
		}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fieldscore",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of a single review extraction call, retries included.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		TagsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldscore",
			Name:      "tags_written_total",
			Help:      "Validated tags persisted to the score store.",
		}),
		TagsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldscore",
			Name:      "tags_dropped_total",
			Help:      "Extraction candidates rejected by ontology validation.",
		}),
		BuildRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fieldscore",
			Name:      "build_running",
			Help:      "1 while a build run is active, 0 otherwise.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fieldscore",
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete build run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
	}
}
