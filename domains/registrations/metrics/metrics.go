package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registrations domain.
type Metrics struct {
	// Public lookup outcomes by result kind
	LookupOutcome *prometheus.CounterVec

	// Administrative status transitions by target status
	StatusTransition *prometheus.CounterVec
}

// New creates a Metrics instance with all registration metrics registered.
func New() *Metrics {
	return &Metrics{
		LookupOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "swasraya_registration_lookups_total",
			Help: "Total public registration lookups by outcome",
		}, []string{"outcome"}), // outcome: "found", "not_found", "ambiguous", "error"

		StatusTransition: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "swasraya_registration_status_transitions_total",
			Help: "Total registration status transitions by target status",
		}, []string{"status"}),
	}
}

// IncrementLookup records a lookup outcome.
func (m *Metrics) IncrementLookup(outcome string) {
	if m != nil {
		m.LookupOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementTransition records an applied status transition.
func (m *Metrics) IncrementTransition(status string) {
	if m != nil {
		m.StatusTransition.WithLabelValues(status).Inc()
	}
}
