package storage

import (
	"context"

	"github.com/mselser95/parimutuel-house/pkg/types"
)

// Storage is the interface for persisting House events.
type Storage interface {
	// StoreEvent persists a committed House event.
	StoreEvent(ctx context.Context, event *types.Event) error

	// Close closes the storage connection.
	Close() error
}
