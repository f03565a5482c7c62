// Package eventbus delivers domain events to their side-effect
// handlers, in process for a single node and over Redis Pub/Sub when
// several API instances share the load.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atiendo/atiendo/internal/domain/event"
)

// EventHandler is a function that handles domain events.
type EventHandler func(ctx context.Context, event event.DomainEvent) error

// InProcessBus dispatches events synchronously to handlers registered
// for their type, in registration order. Handler failures are logged
// and never propagate to the publisher: the triggering state change is
// already committed by the time an event reaches the bus.
type InProcessBus struct {
	handlers   map[string][]EventHandler
	handlersMu sync.RWMutex
	logger     *slog.Logger
}

// InProcessOption configures an InProcessBus.
type InProcessOption func(*InProcessBus)

// WithInProcessLogger sets the logger for the bus.
func WithInProcessLogger(logger *slog.Logger) InProcessOption {
	return func(b *InProcessBus) {
		b.logger = logger
	}
}

// NewInProcessBus creates a new in-process event bus.
func NewInProcessBus(opts ...InProcessOption) *InProcessBus {
	b := &InProcessBus{
		handlers: make(map[string][]EventHandler),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers an event handler for a specific event type.
// Handlers run synchronously in the order they were registered.
func (b *InProcessBus) Subscribe(eventType string, handler EventHandler) error {
	if eventType == "" {
		return errors.New("event type cannot be empty")
	}
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Publish dispatches the event to every handler registered for its
// type. It always returns nil for delivered events: individual handler
// failures are contained and logged.
func (b *InProcessBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	if evt == nil {
		return errors.New("event cannot be nil")
	}

	b.handlersMu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[evt.EventType()]...)
	b.handlersMu.RUnlock()

	for i, handler := range handlers {
		b.runHandler(ctx, handler, evt, i)
	}
	return nil
}

func (b *InProcessBus) runHandler(
	ctx context.Context,
	handler EventHandler,
	evt event.DomainEvent,
	handlerIndex int,
) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "event handler panicked",
				slog.String("event_type", evt.EventType()),
				slog.String("aggregate_id", evt.AggregateID()),
				slog.Int("handler_index", handlerIndex),
				slog.String("panic", fmt.Sprintf("%v", r)),
			)
		}
	}()

	if err := handler(ctx, evt); err != nil {
		b.logger.ErrorContext(ctx, "event handler failed",
			slog.String("event_type", evt.EventType()),
			slog.String("aggregate_id", evt.AggregateID()),
			slog.Int("handler_index", handlerIndex),
			slog.String("error", err.Error()),
		)
	}
}

// HandlerCount returns the number of handlers registered for an event type.
func (b *InProcessBus) HandlerCount(eventType string) int {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()
	return len(b.handlers[eventType])
}

// Ensure InProcessBus implements event.Bus
var _ event.Bus = (*InProcessBus)(nil)
