package pagination

import (
	"github.com/Sternrassler/listpage/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var factory = promauto.With(metrics.Registry)

var (
	// FetchesTotal counts fetch callback invocations by outcome
	FetchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listpage_fetches_total",
			Help: "Total number of page fetches by list and outcome",
		},
		[]string{"list", "outcome"}, // "success", "error", "invalid"
	)

	// FetchDuration tracks how long fetch callbacks take
	FetchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listpage_fetch_duration_seconds",
			Help:    "Page fetch duration in seconds by list",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"list"},
	)

	// PagesMerged counts pages appended to a list
	PagesMerged = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listpage_pages_merged_total",
			Help: "Total number of pages merged by list",
		},
		[]string{"list"},
	)

	// ItemsMerged counts items appended to a list
	ItemsMerged = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listpage_items_merged_total",
			Help: "Total number of items merged by list",
		},
		[]string{"list"},
	)

	// AdvanceNoops counts advances skipped because no more pages exist
	AdvanceNoops = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listpage_advance_noops_total",
			Help: "Total number of advances skipped because the list had no more pages",
		},
		[]string{"list"},
	)

	// Resets counts state resets
	Resets = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listpage_resets_total",
			Help: "Total number of list resets",
		},
		[]string{"list"},
	)

	// LockContention counts Try* calls rejected because a fetch was in flight
	LockContention = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listpage_lock_contention_total",
			Help: "Total number of fetch attempts rejected because a fetch was in flight",
		},
		[]string{"list"},
	)

	// FetchInFlight is 1 while a list's fetch lock is held
	FetchInFlight = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "listpage_fetch_in_flight",
			Help: "Whether a fetch is currently in flight for the list",
		},
		[]string{"list"},
	)
)
