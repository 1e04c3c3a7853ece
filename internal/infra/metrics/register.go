package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	collectors   []prometheus.Collector
)

// register queues collectors for MustRegister. Called from init()
// in the per-concern metric files.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister registers every queued collector with the default
// registry. Safe to call more than once.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(collectors...)
	})
}
