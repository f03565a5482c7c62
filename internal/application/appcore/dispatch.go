package appcore

import (
	"context"
	"log/slog"

	"github.com/atiendo/atiendo/internal/domain/event"
)

// PublishCommitted drains a carrier's uncommitted events into the bus
// and clears the buffer. It must only be called after the repository
// write has succeeded. Publish failures are logged and swallowed: the
// primary write already committed, so the command must not fail on a
// side-effect channel.
//
// The drained events are returned so use cases can attach them to their
// result.
func PublishCommitted(
	ctx context.Context,
	bus event.Bus,
	carrier event.Carrier,
	logger *slog.Logger,
) []event.DomainEvent {
	if logger == nil {
		logger = slog.Default()
	}

	events := carrier.UncommittedEvents()
	for _, evt := range events {
		if err := bus.Publish(ctx, evt); err != nil {
			logger.WarnContext(ctx, "failed to publish domain event",
				slog.String("event_type", evt.EventType()),
				slog.String("aggregate_id", evt.AggregateID()),
				slog.String("error", err.Error()),
			)
		}
	}
	carrier.MarkEventsCommitted()
	return events
}
