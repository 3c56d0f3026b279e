package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		paymentsTotal,
		checkoutSessionsTotal,
		paymentsReapedTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment status transitions (pending/succeeded/failed/canceled).",
		},
		[]string{"status"},
	)

	checkoutSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout sessions by outcome (created/reused/replaced).",
		},
		[]string{"outcome"},
	)

	paymentsReapedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_reaped_total",
			Help: "Stale pending payments expired by the checkout reaper.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPayment(status string)          { paymentsTotal.WithLabelValues(norm(status)).Inc() }
func IncCheckoutSession(outcome string) { checkoutSessionsTotal.WithLabelValues(norm(outcome)).Inc() }
func IncPaymentsReaped(count int)       { paymentsReapedTotal.Add(float64(count)) }
