// Package middleware provides cross-cutting infrastructure for the
// fact-checking service, currently the Prometheus-backed metrics collector
// shared by the verification pipeline and the upstream LLM transport.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ncls-p/teapot-facts/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector over the global
// Prometheus registry. Metric families are created once at construction;
// recording methods route by metric name so callers stay decoupled from
// Prometheus types.
type PrometheusMetrics struct {
	requestCounter   *prometheus.CounterVec
	refusalCounter   *prometheus.CounterVec
	tokenCounter     *prometheus.CounterVec
	confidenceHist   prometheus.Histogram
	latencyHist      *prometheus.HistogramVec
	upstreamLatency  *prometheus.HistogramVec
	genericHistogram *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the service's metric families and returns
// the collector. Construct it once per process; promauto panics on
// duplicate registration.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		requestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factcheck_requests_total",
				Help: "Total fact-check and extraction requests by operation and status.",
			},
			[]string{"operation", "status"},
		),
		refusalCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factcheck_refusals_total",
				Help: "Total answers classified as refusals.",
			},
			[]string{"operation"},
		),
		tokenCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_tokens_total",
				Help: "Total tokens exchanged with the upstream model provider.",
			},
			[]string{"provider", "model", "token_type"},
		),
		confidenceHist: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "factcheck_confidence",
				Help:    "Distribution of confidence scores on completed fact checks.",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
			},
		),
		latencyHist: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "factcheck_operation_duration_seconds",
				Help:    "Execution time of pipeline operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		upstreamLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_latency_seconds",
				Help:    "Latency of upstream model provider requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "status"},
		),
		genericHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "factcheck_observations",
				Help:    "Catch-all histogram for unrouted observations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records an operation's execution time.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.latencyHist.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter increments a counter, routing known metric names to their
// dedicated families and anything else to the request counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "fact_check_requests_total":
		pm.requestCounter.WithLabelValues("fact_check", labels["status"]).Add(value)
	case "extraction_requests_total":
		pm.requestCounter.WithLabelValues("extraction", labels["status"]).Add(value)
	case "fact_check_refusals_total":
		pm.refusalCounter.WithLabelValues("fact_check").Add(value)
	case "upstream_requests_total":
		pm.requestCounter.WithLabelValues("upstream", labels["status"]).Add(value)
	case "upstream_tokens_total":
		pm.tokenCounter.WithLabelValues(
			labels["provider"], labels["model"], labels["token_type"],
		).Add(value)
	default:
		pm.requestCounter.WithLabelValues(metric, labels["status"]).Add(value)
	}
}

// RecordHistogram records a distribution value, routing confidence scores
// and upstream latencies to their dedicated families.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "fact_check_confidence":
		pm.confidenceHist.Observe(value)
	case "upstream_latency_seconds":
		pm.upstreamLatency.WithLabelValues(
			labels["provider"], labels["model"], labels["status"],
		).Observe(value)
	default:
		pm.genericHistogram.WithLabelValues(metric).Observe(value)
	}
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
