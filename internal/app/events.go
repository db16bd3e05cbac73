package app

import (
	"context"

	"github.com/mselser95/parimutuel-house/internal/house"
	"github.com/mselser95/parimutuel-house/pkg/types"
)

// eventFanout hands every House event to each sink in order: storage first,
// then the view cache, then the websocket hub.
type eventFanout struct {
	sinks []house.Publisher
}

func (f *eventFanout) Publish(ctx context.Context, event *types.Event) {
	for _, sink := range f.sinks {
		sink.Publish(ctx, event)
	}
}
