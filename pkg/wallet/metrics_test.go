package wallet

import (
	"testing"
)

// TestMetrics_Registration tests all metrics are initialized
func TestMetrics_Registration(t *testing.T) {
	if RPCCallsTotal == nil {
		t.Error("RPCCallsTotal not registered")
	}

	if RPCCallDuration == nil {
		t.Error("RPCCallDuration not registered")
	}
}

// TestMetrics_Labels tests label sets are accepted
func TestMetrics_Labels(t *testing.T) {
	RPCCallsTotal.WithLabelValues("balanceOf", "ok").Inc()
	RPCCallDuration.WithLabelValues("balanceOf").Observe(0.01)
}
