package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(visionCallsLatencyMs, visionCalories)
}

var visionCallsLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "vision_calls_latency_ms",
		Help:    "Vision call latency distribution in milliseconds.",
		Buckets: []float64{50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000},
	},
	[]string{"provider", "success"},
)

var visionCalories = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "vision_estimated_calories",
		Help:    "Distribution of accepted calorie estimates.",
		Buckets: []float64{100, 200, 400, 600, 800, 1200, 1600, 2000, 3000, 5000},
	},
)

func ObserveVisionCall(provider string, latencyMs int, success bool) {
	visionCallsLatencyMs.WithLabelValues(norm(provider), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func ObserveCalories(calories int) {
	visionCalories.Observe(float64(calories))
}
