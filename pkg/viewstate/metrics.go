package viewstate

import (
	"github.com/Sternrassler/listpage/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var factory = promauto.With(metrics.Registry)

var (
	// SinkPushes tracks state pushes by sink
	SinkPushes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listpage_sink_pushes_total",
			Help: "Total number of view state pushes by sink",
		},
		[]string{"sink"}, // "redis", "memory"
	)

	// SinkErrors tracks sink operation errors
	SinkErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listpage_sink_errors_total",
			Help: "Total number of view state sink errors",
		},
		[]string{"operation"}, // "push", "get", "delete"
	)

	// SinkBytes tracks encoded bytes written to Redis
	SinkBytes = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "listpage_sink_bytes_total",
			Help: "Total number of encoded view state bytes written to Redis",
		},
	)
)
