package playtoken

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// PlayMintedTotal tracks PLAY created by the mint authority (base units).
	PlayMintedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parimutuel_play_minted_total",
		Help: "Total PLAY minted (base units)",
	})

	// PlayBurnedTotal tracks PLAY destroyed by the transfer burn (base units).
	PlayBurnedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parimutuel_play_burned_total",
		Help: "Total PLAY burned on transfer (base units)",
	})
)
