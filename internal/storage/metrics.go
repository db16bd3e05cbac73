package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// EventsStoredTotal tracks event writes by backend and outcome.
	EventsStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parimutuel_storage_events_stored_total",
			Help: "Total House events written by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)
)
