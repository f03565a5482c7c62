package outbox

import (
	"context"
	"fmt"

	"github.com/atiendo/atiendo/internal/application/appcore"
	"github.com/atiendo/atiendo/internal/domain/event"
)

// Bus is an event.Bus that stages events in the outbox instead of
// emitting them. The relay worker drains the outbox and publishes to
// the real bus, which makes delivery survive process crashes between
// the aggregate write and the publish.
type Bus struct {
	outbox appcore.Outbox
}

// NewBus creates a new outbox-backed Bus.
func NewBus(outbox appcore.Outbox) *Bus {
	return &Bus{outbox: outbox}
}

// Publish appends the event to the outbox.
func (b *Bus) Publish(ctx context.Context, evt event.DomainEvent) error {
	if err := b.outbox.Add(ctx, evt); err != nil {
		return fmt.Errorf("failed to stage event in outbox: %w", err)
	}
	return nil
}

var _ event.Bus = (*Bus)(nil)
