// Package metrics exposes Prometheus counters for the activity fan-out.
// Package-level registration keeps the counters safe to reference from any
// number of logger instances.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confreg_activity_records_emitted_total",
		Help: "Activity records successfully persisted, by kind",
	}, []string{"kind"})

	emitFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confreg_activity_emit_failures_total",
		Help: "Activity records dropped because persistence or publish failed, by kind",
	}, []string{"kind"})
)

// IncEmitted records a successfully persisted activity record.
func IncEmitted(kind string) {
	recordsEmitted.WithLabelValues(kind).Inc()
}

// IncFailed records a dropped activity record. Drops are invisible to end
// users, so the counter is the operator's only signal.
func IncFailed(kind string) {
	emitFailures.WithLabelValues(kind).Inc()
}
