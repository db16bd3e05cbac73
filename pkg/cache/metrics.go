package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// CacheHitsTotal counts views served from the cache.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parimutuel_cache_hits_total",
		Help: "Total number of bet view cache hits",
	})

	// CacheMissesTotal counts views rendered from the ledger.
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parimutuel_cache_misses_total",
		Help: "Total number of bet view cache misses",
	})

	CacheSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parimutuel_cache_sets_total",
		Help: "Total number of bet views cached",
	})

	CacheDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parimutuel_cache_deletes_total",
		Help: "Total number of bet view invalidations",
	})
)
