package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	channelDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskwatch_channel_deliveries_total",
			Help: "Notification delivery attempts by channel and status.",
		},
		[]string{"channel", "status"},
	)
	channelDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riskwatch_channel_delivery_duration_seconds",
			Help:    "Duration of notification delivery attempts.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"channel"},
	)
)
