package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(subscriptionsExpiredTotal)
}

var subscriptionsExpiredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "subscriptions_expired_total",
		Help: "Total number of subscriptions processed by the expiry worker.",
	},
)

func IncSubscriptionsExpired(count int) {
	subscriptionsExpiredTotal.Add(float64(count))
}
