package solvency

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Solvent indicates whether every asset held covers what is owed.
	Solvent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parimutuel_solvency_solvent",
		Help: "Whether the House escrow covers what it owes (1=solvent, 0=short)",
	})

	// OwedAmount tracks what the House owes bettors per asset, in base units.
	OwedAmount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "parimutuel_solvency_owed_base_units",
		Help: "Uncollected bet totals per asset",
	}, []string{"asset"})

	// HeldAmount tracks the House balance per asset, in base units.
	HeldAmount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "parimutuel_solvency_held_base_units",
		Help: "House balance per asset",
	}, []string{"asset"})

	// StateChanges counts flips between solvent and short.
	StateChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parimutuel_solvency_state_changes_total",
		Help: "Total number of times the solvent state changed",
	})

	// CheckDuration tracks the time taken to read the escrow.
	CheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parimutuel_solvency_check_duration_seconds",
		Help:    "Time taken to read the House escrow",
		Buckets: prometheus.DefBuckets,
	})
)
