package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ActiveConnections tracks connected event clients.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parimutuel_ws_active_connections",
		Help: "Number of connected WebSocket event clients",
	})

	// MessagesSentTotal tracks events delivered to client queues by type.
	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parimutuel_ws_messages_sent_total",
			Help: "Total number of events queued to WebSocket clients",
		},
		[]string{"event_type"},
	)

	// MessagesDroppedTotal tracks events dropped due to full channels.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parimutuel_ws_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped due to channel full",
		},
		[]string{"reason"},
	)

	// ConnectionDuration tracks WebSocket connection lifetime.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parimutuel_ws_connection_duration_seconds",
		Help:    "Duration of WebSocket connections before disconnect",
		Buckets: []float64{1, 10, 60, 300, 600, 1800, 3600, 14400, 86400},
	})
)
