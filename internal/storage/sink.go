package storage

import (
	"context"

	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// EventSink publishes House events into a Storage. A failed store is logged
// and dropped: the ledger change it describes has already committed.
type EventSink struct {
	storage Storage
	logger  *zap.Logger
}

// NewEventSink creates a sink writing to s.
func NewEventSink(s Storage, logger *zap.Logger) *EventSink {
	return &EventSink{storage: s, logger: logger}
}

// Publish stores event.
func (s *EventSink) Publish(ctx context.Context, event *types.Event) {
	err := s.storage.StoreEvent(ctx, event)
	if err != nil {
		EventsStoredTotal.WithLabelValues("sink", "dropped").Inc()
		s.logger.Error("event-store-failed",
			zap.String("event-id", event.ID),
			zap.String("event-type", string(event.Type)),
			zap.Error(err))
	}
}
