package websocket

import (
	"testing"
)

// TestMetrics_Registration tests all metrics are initialized
func TestMetrics_Registration(t *testing.T) {
	if ActiveConnections == nil {
		t.Error("ActiveConnections not registered")
	}

	if MessagesSentTotal == nil {
		t.Error("MessagesSentTotal not registered")
	}

	if MessagesDroppedTotal == nil {
		t.Error("MessagesDroppedTotal not registered")
	}

	if ConnectionDuration == nil {
		t.Error("ConnectionDuration not registered")
	}
}

// TestMetrics_GaugeOperations tests gauge can be set
func TestMetrics_GaugeOperations(t *testing.T) {
	ActiveConnections.Set(3)
	ActiveConnections.Set(0)
	ConnectionDuration.Observe(12)
}
