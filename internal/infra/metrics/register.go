package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

// register queues collectors at package init time. Nothing reaches the
// default registry until MustRegister flushes the queue.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister flushes every queued collector into the default Prometheus
// registry. Safe to call more than once; only the first call registers.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(pending...)
	})
}
