package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analytics service call metrics, served from the default registry.
var (
	AnalyticsLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "consensusbot",
			Subsystem: "analytics",
			Name:      "latency_seconds",
			Help:      "Latency of analytics service calls",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"endpoint"},
	)

	AnalyticsErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "consensusbot",
			Subsystem: "analytics",
			Name:      "errors_total",
			Help:      "Errors by analytics endpoint",
		},
		[]string{"endpoint"},
	)
)
