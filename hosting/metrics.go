package hosting

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry     = prometheus.NewRegistry()
	registerOnce sync.Once

	boundariesStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livetests",
			Subsystem: "hosting",
			Name:      "boundaries_started_total",
			Help:      "Isolation boundaries started.",
		},
		[]string{"application"},
	)
	boundariesStopped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livetests",
			Subsystem: "hosting",
			Name:      "boundaries_stopped_total",
			Help:      "Isolation boundaries shut down.",
		},
		[]string{"application", "mode"},
	)
	pipelineRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livetests",
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Simulated requests run through a hosted application pipeline.",
		},
		[]string{"application", "method", "status"},
	)
	pipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "livetests",
			Subsystem: "pipeline",
			Name:      "request_duration_seconds",
			Help:      "Duration of simulated requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"application", "method", "status"},
	)
)

func registerMetrics() {
	registerOnce.Do(func() {
		registry.MustRegister(boundariesStarted, boundariesStopped, pipelineRequests, pipelineDuration)
	})
}

// Metrics returns the gatherer holding the hosting metrics.
func Metrics() prometheus.Gatherer {
	registerMetrics()
	return registry
}

func recordBoundaryStarted(application string) {
	registerMetrics()
	boundariesStarted.WithLabelValues(application).Inc()
}

func recordBoundaryStopped(application string, immediate bool) {
	registerMetrics()
	mode := "drain"
	if immediate {
		mode = "immediate"
	}
	boundariesStopped.WithLabelValues(application, mode).Inc()
}

func recordPipelineRequest(application, method string, status int, duration time.Duration) {
	registerMetrics()
	statusLabel := strconv.Itoa(status)
	pipelineRequests.WithLabelValues(application, method, statusLabel).Inc()
	pipelineDuration.WithLabelValues(application, method, statusLabel).Observe(duration.Seconds())
}
