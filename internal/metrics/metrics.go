package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Archive pipeline
var (
	ArchivesGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zip_archives_generated_total",
		Help: "Total number of archives generated",
	}, []string{"builder"})

	ArchiveFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zip_archive_failures_total",
		Help: "Total number of source files that failed to archive",
	}, []string{"builder", "reason"})

	ArchiveBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zip_archive_build_duration_seconds",
		Help:    "Time spent building a single archive",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"builder"})

	ArchiveBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zip_archive_bytes_total",
		Help: "Total bytes of generated archives",
	}, []string{"builder"})
)

// Retrieval
var (
	DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zip_downloads_total",
		Help: "Archive retrieval attempts by outcome",
	}, []string{"outcome"})

	CleanupFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zip_cleanup_failures_total",
		Help: "Archives that could not be deleted after retrieval",
	})
)

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"method", "route"})
)
