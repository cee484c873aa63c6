package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(artifactsSweptTotal, artifactsStoredTotal)
}

var artifactsSweptTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "artifacts_swept_total",
		Help: "Photo artifacts removed by the retention sweep.",
	},
)

var artifactsStoredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "artifacts_stored_total",
		Help: "Photo artifacts written to the store.",
	},
)

func AddArtifactsSwept(n int) { artifactsSweptTotal.Add(float64(n)) }
func IncArtifactStored()      { artifactsStoredTotal.Inc() }
