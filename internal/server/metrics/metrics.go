// Package metrics provides Prometheus metrics for the nospace server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nospace_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nospace_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nospace_rate_limit_hits_total",
			Help: "Total rate limit rejections (429s)",
		},
	)

	// Analysis metrics
	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nospace_analyses_total",
			Help: "Total transcripts analyzed",
		},
		[]string{"result"},
	)

	analysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nospace_analysis_duration_seconds",
			Help:    "Time to parse a transcript, build its tree and aggregate sizes",
			Buckets: prometheus.DefBuckets,
		},
	)

	treeNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nospace_tree_nodes",
			Help:    "Number of files and directories per rebuilt tree",
			Buckets: prometheus.ExponentialBuckets(8, 4, 8),
		},
	)

	transcriptBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nospace_transcript_bytes_total",
			Help: "Total bytes of transcripts accepted",
		},
	)

	// Cleanup metrics
	cleanupRemovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nospace_cleanup_removed_total",
			Help: "Expired analyses processed by the cleanup loop",
		},
		[]string{"status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRateLimitHit records a request rejected by the rate limiter.
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}

// RecordAnalysis records one analyzed transcript. truncated marks
// transcripts that stopped at a syntax error.
func RecordAnalysis(nodes int, size int64, truncated bool, duration time.Duration) {
	result := "complete"
	if truncated {
		result = "truncated"
	}
	analysesTotal.WithLabelValues(result).Inc()
	analysisDuration.Observe(duration.Seconds())
	treeNodes.Observe(float64(nodes))
	transcriptBytes.Add(float64(size))
}

// RecordRejectedTranscript records a transcript refused before analysis.
func RecordRejectedTranscript() {
	analysesTotal.WithLabelValues("rejected").Inc()
}

// RecordCleanup records the outcome of one cleanup cycle.
func RecordCleanup(cleaned, failed int) {
	cleanupRemovedTotal.WithLabelValues("cleaned").Add(float64(cleaned))
	cleanupRemovedTotal.WithLabelValues("failed").Add(float64(failed))
}
