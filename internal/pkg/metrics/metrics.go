// Package metrics defines and registers the custom Prometheus metrics of the
// booking API. It is the single source of truth for metric names, labels and
// help strings. Collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booking"

// ── Shipment metrics ──────────────────────────────────────────────────────────

// ShipmentsCreatedTotal counts newly created shipments.
// Label:
//   - delivery_type: "park" or "home"
var ShipmentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipments_created_total",
		Help:      "Total number of shipments created, by delivery type.",
	},
	[]string{"delivery_type"},
)

// StatusChangesTotal counts status updates that changed the stored value.
var StatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_changes_total",
		Help:      "Total number of shipment status changes, by previous and new status.",
	},
	[]string{"from", "to"},
)

// PaymentsRecordedTotal counts payment updates by resulting payment status.
var PaymentsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_recorded_total",
		Help:      "Total number of payment outcomes recorded, by payment status.",
	},
	[]string{"payment_status"},
)

// TrackingCollisionsTotal counts generated tracking numbers rejected as duplicates.
var TrackingCollisionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracking_collisions_total",
		Help:      "Total number of tracking number collisions resolved by regeneration.",
	},
)

// PhotoUploadsTotal counts individual photo uploads.
// Label:
//   - result: "ok" or "error"
var PhotoUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "photo_uploads_total",
		Help:      "Total number of photo uploads to object storage, by result.",
	},
	[]string{"result"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsEnqueuedTotal counts notifications written to the outbox.
var NotificationsEnqueuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_enqueued_total",
		Help:      "Total number of notifications written to the outbox, by kind.",
	},
	[]string{"kind"},
)

// NotificationsDeliveredTotal counts delivery attempts made by the outbox relay.
// Labels:
//   - kind: notification kind (e.g. "status_update")
//   - result: "sent", "retry" or "dead"
var NotificationsDeliveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_delivered_total",
		Help:      "Total number of outbox delivery attempts, by kind and result.",
	},
	[]string{"kind", "result"},
)

// OutboxQueueDepth tracks messages waiting in each delivery worker channel.
var OutboxQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outbox_queue_depth",
		Help:      "Current number of outbox messages pending in each delivery worker channel.",
	},
	[]string{"worker_id"},
)

// OutboxDispatchDuration measures a single delivery attempt end to end.
var OutboxDispatchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "outbox_dispatch_duration_seconds",
		Help:      "Duration of one outbox message delivery attempt.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)
