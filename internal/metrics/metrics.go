// Package metrics exposes Prometheus collectors for the harvest pipeline.
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
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikiharvest_upstream_requests_total",
			Help: "Total number of upstream API requests, labeled by api and status code.",
		},
		[]string{"api", "code"},
	)

	upstreamRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wikiharvest_upstream_request_duration_seconds",
			Help:    "Histogram of upstream request latencies, labeled by api.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"api"},
	)

	upstreamRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikiharvest_upstream_retries_total",
			Help: "Total number of retried upstream attempts, labeled by api.",
		},
		[]string{"api"},
	)

	rateLimitDelaysSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wikiharvest_rate_limit_delays_seconds",
			Help:    "Histogram of rate limit wait durations, labeled by api.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"api"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpstreamRequest records one completed upstream API call.
func ObserveUpstreamRequest(api string, code int, duration time.Duration) {
	upstreamRequestsTotal.WithLabelValues(api, strconv.Itoa(code)).Inc()
	upstreamRequestDurationSeconds.WithLabelValues(api).Observe(duration.Seconds())
}

// ObserveUpstreamRetry increments the retry counter for the given API.
func ObserveUpstreamRetry(api string) {
	upstreamRetriesTotal.WithLabelValues(api).Inc()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(api string, duration time.Duration) {
	rateLimitDelaysSeconds.WithLabelValues(api).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP server request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
