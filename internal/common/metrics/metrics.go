// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChannelSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_channel_sends_total",
			Help: "Total channel send attempts by channel and result",
		},
		[]string{"channel", "result"},
	)

	EndpointsDisabled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_endpoints_disabled_total",
			Help: "Device tokens and browser subscriptions disabled after permanent provider failures",
		},
		[]string{"channel"},
	)

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_events_processed_total",
			Help: "Total events processed by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notification_batch_duration_seconds",
			Help: "Duration of batch processing in seconds",
		},
		[]string{"outcome"},
	)

	BadgeIncrements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_badge_increments_total",
			Help: "Total per-user badge counter increments",
		},
	)
)
