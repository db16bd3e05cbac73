package cache

import (
	"time"

	"github.com/mselser95/parimutuel-house/pkg/types"
)

// Cache holds rendered bet views between House events.
type Cache interface {
	// Get retrieves the view of a bet.
	// Returns (view, true) if found, (nil, false) if not found.
	Get(id types.BetID) (*types.BetView, bool)

	// Set stores a view with a TTL. The view's phase is time-derived, so the
	// TTL bounds how stale it can get.
	Set(id types.BetID, view *types.BetView, ttl time.Duration) bool

	// Invalidate removes the view of a bet.
	Invalidate(id types.BetID)

	// Clear removes all views from the cache.
	Clear()

	// Close closes the cache and releases resources.
	Close()
}
