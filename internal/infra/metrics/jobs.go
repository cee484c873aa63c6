package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(captureJobsTotal, captureRetriesTotal, captureQueueDepth)
}

var captureJobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "capture_jobs_total",
		Help: "Capture jobs reaching a terminal state, labeled by status and error kind.",
	},
	[]string{"status", "error_kind"},
)

var captureRetriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "capture_retries_total",
		Help: "Automatic retries scheduled, labeled by error kind.",
	},
	[]string{"error_kind"},
)

var captureQueueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "capture_queue_depth",
		Help: "Current number of capture jobs per status.",
	},
	[]string{"status"},
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncJobTerminal(status, errorKind string) {
	captureJobsTotal.WithLabelValues(norm(status), norm(errorKind)).Inc()
}

func IncRetryScheduled(errorKind string) {
	captureRetriesTotal.WithLabelValues(norm(errorKind)).Inc()
}

func SetQueueDepth(status string, n int) {
	captureQueueDepth.WithLabelValues(norm(status)).Set(float64(n))
}
