package listpage

import (
	"github.com/Sternrassler/listpage/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var factory = promauto.With(metrics.Registry)

// Lifecycle handler results.
const (
	resultOK       = "ok"
	resultDisabled = "disabled"
	resultBusy     = "busy"
	resultError    = "error"
)

// lifecycleEvents counts lifecycle handler calls by event and result.
var lifecycleEvents = factory.NewCounterVec(prometheus.CounterOpts{
	Name: "listpage_lifecycle_events_total",
	Help: "Total lifecycle handler calls by event and result",
}, []string{"event", "result"})

func recordEvent(event, result string) {
	lifecycleEvents.WithLabelValues(event, result).Inc()
}
