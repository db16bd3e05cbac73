package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// OracleRequestsTotal counts remote hook calls by hook and outcome.
	OracleRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parimutuel_oracle_requests_total",
			Help: "Total remote oracle hook calls",
		},
		[]string{"hook", "outcome"},
	)

	// OracleRequestDuration tracks remote hook latency.
	OracleRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parimutuel_oracle_request_duration_seconds",
			Help:    "Latency of remote oracle hook calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"hook"},
	)
)
