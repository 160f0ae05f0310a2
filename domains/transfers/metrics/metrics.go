package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the transfer workflow.
type Metrics struct {
	// Submission outcomes by result kind
	SubmissionOutcome *prometheus.CounterVec

	// Resolutions by decision
	Resolution *prometheus.CounterVec
}

// New creates a Metrics instance with all transfer metrics registered.
func New() *Metrics {
	return &Metrics{
		SubmissionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "swasraya_transfer_submissions_total",
			Help: "Total transfer request submissions by outcome",
		}, []string{"outcome"}), // outcome: "accepted", "duplicate", "rejected", "error"

		Resolution: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "swasraya_transfer_resolutions_total",
			Help: "Total transfer request resolutions by decision",
		}, []string{"decision"}),
	}
}

// IncrementSubmission records a submission outcome.
func (m *Metrics) IncrementSubmission(outcome string) {
	if m != nil {
		m.SubmissionOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementResolution records a resolved request.
func (m *Metrics) IncrementResolution(decision string) {
	if m != nil {
		m.Resolution.WithLabelValues(decision).Inc()
	}
}
