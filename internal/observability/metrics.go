// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roommatch_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ConnectionTransitions counts connection state changes by resulting status.
	ConnectionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roommatch_connection_transitions_total",
		Help: "Total connection state transitions by resulting status",
	}, []string{"status"})

	// MessagesSent counts persisted messages by the channel they arrived on.
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roommatch_messages_sent_total",
		Help: "Total number of persisted messages",
	}, []string{"channel"})

	// MessagesRejected counts send attempts refused before persistence.
	MessagesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roommatch_messages_rejected_total",
		Help: "Total number of rejected message sends by reason",
	}, []string{"reason"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roommatch_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketRoomsActive is the number of rooms with at least one member.
	WebSocketRoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roommatch_websocket_rooms_active",
		Help: "Number of realtime rooms with at least one member",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roommatch_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roommatch_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// RealtimeRelayErrors counts failures publishing to or consuming from the Redis relay.
	RealtimeRelayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roommatch_realtime_relay_errors_total",
		Help: "Total Redis relay errors by stage",
	}, []string{"stage"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
