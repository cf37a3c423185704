package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// rfqTransitions counts committed RFQ state changes by target state.
	rfqTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_transitions_total",
			Help: "Committed RFQ state transitions by target state.",
		},
		[]string{"to"},
	)

	// quotationTransitions counts committed quotation state changes by target state.
	quotationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_transitions_total",
			Help: "Committed quotation state transitions by target state.",
		},
		[]string{"to"},
	)

	sweepRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "expiry_sweep_runs_total",
		Help: "Completed expiry sweep runs.",
	})

	sweepFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "expiry_sweep_failures_total",
		Help: "RFQs or quotations the expiry sweep failed to expire.",
	})

	notificationsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Notifications dropped before delivery, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(rfqTransitions, quotationTransitions, sweepRuns, sweepFailures, notificationsDropped)
}

// RFQTransition records one committed RFQ transition into state to.
func RFQTransition(to string) { rfqTransitions.WithLabelValues(to).Inc() }

// QuotationTransitions records n committed quotation transitions into state to.
func QuotationTransitions(to string, n int) {
	if n > 0 {
		quotationTransitions.WithLabelValues(to).Add(float64(n))
	}
}

// SweepCompleted records a finished sweep run and its per-item failures.
func SweepCompleted(failed int) {
	sweepRuns.Inc()
	if failed > 0 {
		sweepFailures.Add(float64(failed))
	}
}

// NotificationDropped records an undelivered notification.
func NotificationDropped(reason string) { notificationsDropped.WithLabelValues(reason).Inc() }
