// Package metrics provides the Prometheus registry and HTTP handler for listpage.
// Metrics are defined in the packages that own them (pagination, viewstate,
// httpfetch, listpage) with promauto.With(Registry); this package documents them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registerer all listpage metrics use.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler that exposes the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// List Metrics (pkg/pagination):
//   - listpage_fetches_total{list, outcome} (Counter): Fetch callback calls by outcome (success, error, invalid)
//   - listpage_fetch_duration_seconds{list} (Histogram): Fetch callback duration
//   - listpage_pages_merged_total{list} (Counter): Pages appended
//   - listpage_items_merged_total{list} (Counter): Items appended
//   - listpage_advance_noops_total{list} (Counter): Advances skipped with no more pages
//   - listpage_resets_total{list} (Counter): Resets
//   - listpage_lock_contention_total{list} (Counter): TryAdvance/TryRefresh rejected by an in-flight fetch
//   - listpage_fetch_in_flight{list} (Gauge): 1 while the fetch lock is held
//
// Sink Metrics (pkg/viewstate):
//   - listpage_sink_pushes_total{sink} (Counter): State pushes by sink (redis, memory)
//   - listpage_sink_errors_total{operation} (Counter): Sink operation errors (push, get, delete)
//   - listpage_sink_bytes_total (Counter): Encoded bytes written to Redis
//
// Registry Metrics (pkg/listpage):
//   - listpage_lifecycle_events_total{event, result} (Counter): Lifecycle handler calls by result
//
// Upstream Metrics (pkg/httpfetch):
//   - listpage_upstream_requests_total{status} (Counter): Upstream page requests by status
//   - listpage_upstream_request_duration_seconds (Histogram): Upstream request duration
//   - listpage_upstream_retries_total{error_class} (Counter): Retry attempts by error class
//   - listpage_upstream_retry_backoff_seconds{error_class} (Histogram): Backoff waited before a retry
//   - listpage_upstream_retry_exhausted_total{error_class} (Counter): Requests that ran out of attempts
//
// Example Prometheus Queries:
//
//   # Fetch error rate per list
//   sum by (list) (rate(listpage_fetches_total{outcome!="success"}[5m]))
//
//   # Gestures dropped because a fetch was in flight
//   rate(listpage_lock_contention_total[5m])
//
//   # P95 fetch latency
//   histogram_quantile(0.95, rate(listpage_fetch_duration_seconds_bucket[5m]))
