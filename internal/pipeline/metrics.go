package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskwatch_poll_cycles_total",
			Help: "Completed poll cycles by result.",
		},
		[]string{"result"},
	)
	alertsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "riskwatch_alerts_detected_total",
			Help: "New high-risk alerts detected.",
		},
	)
	cycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riskwatch_cycle_duration_seconds",
			Help:    "Duration of a full poll cycle.",
			Buckets: prometheus.DefBuckets,
		},
	)
)
