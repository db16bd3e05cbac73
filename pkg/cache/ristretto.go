package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// RistrettoCache is a bet view cache backed by Ristretto. It also listens to
// House events and drops the view of every bet an event touches.
type RistrettoCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

// RistrettoConfig holds configuration for Ristretto cache.
type RistrettoConfig struct {
	NumCounters int64 // Number of keys to track frequency (10x max items)
	MaxCost     int64 // Maximum number of cached views
	BufferItems int64 // Number of keys per Get buffer
	Logger      *zap.Logger
}

// NewRistrettoCache creates a new Ristretto-backed cache.
func NewRistrettoCache(cfg *RistrettoConfig) (*RistrettoCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true, // Enable metrics
	})
	if err != nil {
		return nil, err
	}

	return &RistrettoCache{
		cache:  cache,
		logger: cfg.Logger,
	}, nil
}

// Get retrieves the view of a bet.
func (r *RistrettoCache) Get(id types.BetID) (*types.BetView, bool) {
	key := id.Hex()
	value, found := r.cache.Get(key)
	if !found {
		CacheMissesTotal.Inc()
		r.logger.Debug("cache-miss", zap.String("bet-id", key))
		return nil, false
	}

	view, ok := value.(*types.BetView)
	if !ok {
		CacheMissesTotal.Inc()
		return nil, false
	}

	CacheHitsTotal.Inc()
	r.logger.Debug("cache-hit", zap.String("bet-id", key))

	// callers get their own copy
	clone := *view
	return &clone, true
}

// Set stores a view with a TTL.
func (r *RistrettoCache) Set(id types.BetID, view *types.BetView, ttl time.Duration) bool {
	if view == nil {
		return false
	}

	clone := *view
	// Cost = 1 (we're counting views, not bytes)
	success := r.cache.SetWithTTL(id.Hex(), &clone, 1, ttl)
	if success {
		CacheSetsTotal.Inc()
		r.logger.Debug("cache-set",
			zap.String("bet-id", id.Hex()),
			zap.Duration("ttl", ttl))
	}
	return success
}

// Invalidate removes the view of a bet.
func (r *RistrettoCache) Invalidate(id types.BetID) {
	r.cache.Del(id.Hex())
	CacheDeletesTotal.Inc()
	r.logger.Debug("cache-delete", zap.String("bet-id", id.Hex()))
}

// Publish drops the view of the bet an event belongs to. Events that are not
// about a single bet, such as a migration, clear the whole cache.
func (r *RistrettoCache) Publish(_ context.Context, event *types.Event) {
	if event.BetID == (types.BetID{}) {
		r.Clear()
		return
	}
	r.Invalidate(event.BetID)
}

// Clear removes all values from the cache.
func (r *RistrettoCache) Clear() {
	r.cache.Clear()
	r.logger.Debug("cache-cleared")
}

// Close closes the cache and releases resources.
func (r *RistrettoCache) Close() {
	r.cache.Close()
	r.logger.Info("cache-closed")
}

// Metrics returns Ristretto's internal metrics.
func (r *RistrettoCache) Metrics() *ristretto.Metrics {
	return r.cache.Metrics
}

// Wait blocks until all pending writes have been applied.
// This is useful for testing or when you need to ensure a value is cached.
func (r *RistrettoCache) Wait() {
	r.cache.Wait()
}
