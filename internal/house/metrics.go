package house

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// OperationsTotal tracks ledger operations by outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parimutuel_house_operations_total",
			Help: "Total ledger operations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// RejectionsTotal tracks rejected operations by error code.
	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parimutuel_house_rejections_total",
			Help: "Total rejected ledger operations by operation and error code",
		},
		[]string{"op", "code"},
	)

	// EventsEmittedTotal tracks published events by type.
	EventsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parimutuel_house_events_emitted_total",
			Help: "Total events emitted by type",
		},
		[]string{"type"},
	)

	// BetsCreatedTotal tracks created bets by oracle kind.
	BetsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parimutuel_house_bets_created_total",
			Help: "Total bets created by oracle kind",
		},
		[]string{"oracle_kind"},
	)

	// StakedVolumeTotal tracks net stake credited to pools (base units).
	StakedVolumeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parimutuel_house_staked_volume_total",
		Help: "Total net stake credited to option pools (base units)",
	})

	// FeeVolumeTotal tracks protocol fees forwarded to the fee owner (base units).
	FeeVolumeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parimutuel_house_fee_volume_total",
		Help: "Total protocol fees forwarded (base units)",
	})

	// PaidVolumeTotal tracks wagering asset released to bettors by outcome.
	PaidVolumeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parimutuel_house_paid_volume_total",
			Help: "Total wagering asset paid out by outcome (base units)",
		},
		[]string{"outcome"},
	)

	// RewardsMintedTotal tracks PLAY minted by the ledger by source.
	RewardsMintedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parimutuel_house_rewards_minted_total",
			Help: "Total PLAY rewards minted by source (base units)",
		},
		[]string{"source"},
	)

	// CompensationFailuresTotal tracks undo steps that could not be applied.
	CompensationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parimutuel_house_compensation_failures_total",
		Help: "Total compensations that failed during rollback",
	})
)
