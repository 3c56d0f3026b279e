package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all of the platform's collectors. The web layer exposes it
// on /metrics; using a dedicated registry keeps test runs from tripping over
// duplicate registration in the global default.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// register is called from each metric file's init.
func register(cs ...prometheus.Collector) {
	Registry.MustRegister(cs...)
}
