package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReferenceRepairs counts back-reference fixes by the step that made them:
	// "compensation" for inline rollbacks and reconciler kinds otherwise.
	ReferenceRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtwave_reference_repairs_total",
		Help: "Total number of back-reference repairs by kind",
	}, []string{"kind"})

	// SkippedBackReferences counts best-effort link updates skipped because
	// the referenced document was already gone.
	SkippedBackReferences = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtwave_skipped_back_references_total",
		Help: "Total number of best-effort back-reference updates skipped",
	}, []string{"operation"})

	// EventsPublished counts domain events by type and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtwave_events_published_total",
		Help: "Total number of domain events published",
	}, []string{"event_type", "outcome"})

	// WebSocketBackpressureDrops counts events dropped because a client buffer was full or closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtwave_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)
