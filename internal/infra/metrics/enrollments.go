package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		enrollmentsTotal,
		webhookEventsTotal,
	)
}

var (
	enrollmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollments_total",
			Help: "Enrollment status transitions (pending/active/cancelled/deleted).",
		},
		[]string{"status"},
	)

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Verified provider webhook events by type and outcome.",
		},
		[]string{"type", "outcome"},
	)
)

func IncEnrollment(status string) { enrollmentsTotal.WithLabelValues(norm(status)).Inc() }

func IncWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}
