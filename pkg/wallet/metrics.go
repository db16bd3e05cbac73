package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RPCCallsTotal tracks ERC20 view calls by method and outcome.
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parimutuel_wallet_rpc_calls_total",
			Help: "Total number of ERC20 view calls",
		},
		[]string{"method", "outcome"},
	)

	// RPCCallDuration tracks the time taken by ERC20 view calls.
	RPCCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parimutuel_wallet_rpc_call_duration_seconds",
			Help:    "Time taken by ERC20 view calls (seconds)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
