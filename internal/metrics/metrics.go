package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadingsIngested counts processed device readings by derived status.
	ReadingsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gas_readings_ingested_total",
		Help: "Device weight readings ingested, labeled by derived status.",
	}, []string{"status"})

	// AutoOrdersTriggered counts automatic reorders created by the threshold monitor.
	AutoOrdersTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gas_auto_orders_triggered_total",
		Help: "Automatic gas orders created from low readings.",
	})

	// DeliveriesVerified counts orders auto-completed by weight verification.
	DeliveriesVerified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gas_deliveries_verified_total",
		Help: "Orders closed by weight-based delivery verification.",
	})

	// NotificationsPublished counts dispatched notifications by outcome.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gas_notifications_published_total",
		Help: "Notification events published to Pub/Sub.",
	}, []string{"outcome"})

	// ReadingsTrimmed counts readings deleted by the retention trimmer.
	ReadingsTrimmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gas_readings_trimmed_total",
		Help: "Old readings deleted by the retention trimmer.",
	})
)
