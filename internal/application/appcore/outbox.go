package appcore

import (
	"context"
	"time"

	"github.com/atiendo/atiendo/internal/domain/event"
)

// OutboxEntry is an event persisted alongside the state change that
// produced it, waiting to be relayed to the event bus.
type OutboxEntry struct {
	ID            string
	EventID       string
	EventType     string
	AggregateID   string
	AggregateType string
	Payload       []byte
	CreatedAt     time.Time
	Published     bool
	PublishedAt   *time.Time
	RetryCount    int
	LastError     string
}

// Outbox stores events durably before they reach the bus. Writing the
// entry in the same logical commit as the aggregate guarantees that a
// crash between persist and publish cannot lose the event; the relay
// picks it up on the next poll.
type Outbox interface {
	// Add inserts a single event.
	Add(ctx context.Context, evt event.DomainEvent) error

	// AddBatch inserts the events of one commit together.
	AddBatch(ctx context.Context, events []event.DomainEvent) error

	// Poll returns unpublished entries oldest first, up to batchSize.
	Poll(ctx context.Context, batchSize int) ([]OutboxEntry, error)

	// MarkPublished marks an entry as delivered to the bus.
	MarkPublished(ctx context.Context, entryID string) error

	// MarkFailed records a delivery failure for retry accounting.
	MarkFailed(ctx context.Context, entryID string, err error) error

	// Cleanup deletes published entries older than the given age and
	// returns how many were removed.
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)

	// Stats returns the unpublished count and the creation time of the
	// oldest unpublished entry.
	Stats(ctx context.Context) (count int64, oldest time.Time, err error)
}
