package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(guardDenialsTotal)
}

var guardDenialsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "guard_denials_total",
		Help: "Access guard chain denials by failing stage.",
	},
	[]string{"stage"}, // auth, role, feature, tier, subscription, ownership
)

func IncGuardDenial(stage string) { guardDenialsTotal.WithLabelValues(norm(stage)).Inc() }
