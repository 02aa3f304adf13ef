// Package metrics exposes Prometheus counters for registration transitions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confreg_registration_transitions_total",
		Help: "Registration status transitions by resulting status.",
	}, []string{"to"})

	rejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confreg_registration_transitions_rejected_total",
		Help: "Registration transitions rejected before any state change.",
	}, []string{"reason"})
)

// IncTransition records a completed transition into the given status.
func IncTransition(to string) {
	transitions.WithLabelValues(to).Inc()
}

// IncRejected records a transition refused by validation or authorization.
func IncRejected(reason string) {
	rejected.WithLabelValues(reason).Inc()
}
