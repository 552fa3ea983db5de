package httpfetch

import (
	"github.com/Sternrassler/listpage/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var factory = promauto.With(metrics.Registry)

// Prometheus metrics for upstream page requests.
var (
	requestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "listpage_upstream_requests_total",
		Help: "Total upstream page requests by status",
	}, []string{"status"})

	requestDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "listpage_upstream_request_duration_seconds",
		Help:    "Upstream page request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	retriesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "listpage_upstream_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listpage_upstream_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "listpage_upstream_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)
