// Package worker contains background processes that run alongside or
// instead of the API server.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/atiendo/atiendo/internal/application/appcore"
	"github.com/atiendo/atiendo/internal/domain/event"
	"github.com/atiendo/atiendo/internal/infrastructure/metrics"
)

// Default relay configuration values.
const (
	defaultRelayPollInterval = 100 * time.Millisecond
	defaultRelayBatchSize    = 100
	defaultRelayMaxRetries   = 5
	defaultRelayCleanupAge   = 7 * 24 * time.Hour
)

// OutboxRelayConfig contains configuration for the outbox relay.
type OutboxRelayConfig struct {
	// PollInterval is the time between outbox polls.
	PollInterval time.Duration

	// BatchSize is the maximum number of entries per poll cycle.
	BatchSize int

	// MaxRetries caps delivery attempts before an entry is dropped.
	MaxRetries int

	// CleanupAge is the age after which published entries are removed.
	CleanupAge time.Duration

	// CleanupInterval is how often cleanup runs.
	CleanupInterval time.Duration

	// Enabled determines if the relay should run.
	Enabled bool
}

// DefaultOutboxRelayConfig returns sensible defaults.
func DefaultOutboxRelayConfig() OutboxRelayConfig {
	return OutboxRelayConfig{
		PollInterval:    defaultRelayPollInterval,
		BatchSize:       defaultRelayBatchSize,
		MaxRetries:      defaultRelayMaxRetries,
		CleanupAge:      defaultRelayCleanupAge,
		CleanupInterval: 1 * time.Hour,
		Enabled:         true,
	}
}

// OutboxRelay drains the transactional outbox onto the event bus.
type OutboxRelay struct {
	outbox   appcore.Outbox
	eventBus event.Bus
	logger   *slog.Logger
	config   OutboxRelayConfig
	metrics  *metrics.OutboxMetrics
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(
	outbox appcore.Outbox,
	eventBus event.Bus,
	logger *slog.Logger,
	config OutboxRelayConfig,
	m *metrics.OutboxMetrics,
) *OutboxRelay {
	if logger == nil {
		logger = slog.Default()
	}

	return &OutboxRelay{
		outbox:   outbox,
		eventBus: eventBus,
		logger:   logger,
		config:   config,
		metrics:  m,
	}
}

// Run starts the relay and blocks until the context is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	if !r.config.Enabled {
		r.logger.InfoContext(ctx, "outbox relay is disabled")
		return nil
	}

	r.logger.InfoContext(ctx, "starting outbox relay",
		slog.Duration("poll_interval", r.config.PollInterval),
		slog.Int("batch_size", r.config.BatchSize),
		slog.Int("max_retries", r.config.MaxRetries),
	)

	pollTicker := time.NewTicker(r.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(r.config.CleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "outbox relay stopped")
			return ctx.Err()

		case <-pollTicker.C:
			r.updateGaugeMetrics(ctx)

			if err := r.processBatch(ctx); err != nil {
				r.logger.ErrorContext(ctx, "failed to process outbox batch",
					slog.String("error", err.Error()),
				)
			}

		case <-cleanupTicker.C:
			deleted, err := r.outbox.Cleanup(ctx, r.config.CleanupAge)
			if err != nil {
				r.logger.ErrorContext(ctx, "failed to cleanup outbox",
					slog.String("error", err.Error()),
				)
			} else if r.metrics != nil && deleted > 0 {
				r.metrics.CleanupDeletedTotal.Add(float64(deleted))
			}
		}
	}
}

// ProcessOnce drains a single batch. Used by tests and the worker's
// drain-on-shutdown path.
func (r *OutboxRelay) ProcessOnce(ctx context.Context) error {
	return r.processBatch(ctx)
}

func (r *OutboxRelay) processBatch(ctx context.Context) error {
	entries, err := r.outbox.Poll(ctx, r.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to poll outbox: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	if r.metrics != nil {
		r.metrics.PollBatchSize.Observe(float64(len(entries)))
	}

	var published, failed int
	for _, entry := range entries {
		if processErr := r.processEntry(ctx, entry); processErr != nil {
			failed++
			r.logger.WarnContext(ctx, "failed to relay outbox entry",
				slog.String("entry_id", entry.ID),
				slog.String("event_type", entry.EventType),
				slog.String("error", processErr.Error()),
			)
		} else {
			published++
		}
	}

	if published > 0 || failed > 0 {
		r.logger.DebugContext(ctx, "outbox batch completed",
			slog.Int("published", published),
			slog.Int("failed", failed),
		)
	}

	return nil
}

func (r *OutboxRelay) processEntry(ctx context.Context, entry appcore.OutboxEntry) error {
	defer func() {
		if r.metrics != nil {
			r.metrics.ProcessingDuration.
				WithLabelValues(entry.EventType).
				Observe(time.Since(entry.CreatedAt).Seconds())
		}
	}()

	if entry.RetryCount >= r.config.MaxRetries {
		r.logger.ErrorContext(ctx, "outbox entry exceeded max retries, dropping",
			slog.String("entry_id", entry.ID),
			slog.String("event_type", entry.EventType),
			slog.Int("retry_count", entry.RetryCount),
			slog.String("last_error", entry.LastError),
		)
		// Mark published so the entry stops blocking the queue.
		if err := r.outbox.MarkPublished(ctx, entry.ID); err != nil {
			return err
		}
		if r.metrics != nil {
			r.metrics.EventsProcessed.WithLabelValues(entry.EventType, "failed").Inc()
		}
		return nil
	}

	evt := &relayedEvent{
		eventType:     entry.EventType,
		aggregateID:   entry.AggregateID,
		aggregateType: entry.AggregateType,
		occurredAt:    entry.CreatedAt,
		payload:       entry.Payload,
	}

	publishStart := time.Now()
	if err := r.eventBus.Publish(ctx, evt); err != nil {
		if r.metrics != nil {
			r.metrics.RetryTotal.WithLabelValues(entry.EventType).Inc()
		}
		if markErr := r.outbox.MarkFailed(ctx, entry.ID, err); markErr != nil {
			r.logger.ErrorContext(ctx, "failed to mark outbox entry as failed",
				slog.String("entry_id", entry.ID),
				slog.String("error", markErr.Error()),
			)
		}
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if r.metrics != nil {
		r.metrics.PublishDuration.
			WithLabelValues(entry.EventType).
			Observe(time.Since(publishStart).Seconds())
	}

	if err := r.outbox.MarkPublished(ctx, entry.ID); err != nil {
		return fmt.Errorf("failed to mark entry as published: %w", err)
	}

	if r.metrics != nil {
		r.metrics.EventsProcessed.WithLabelValues(entry.EventType, "success").Inc()
	}

	return nil
}

func (r *OutboxRelay) updateGaugeMetrics(ctx context.Context) {
	if r.metrics == nil {
		return
	}

	count, oldest, err := r.outbox.Stats(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to get outbox stats",
			slog.String("error", err.Error()),
		)
		return
	}

	r.metrics.EventsPending.Set(float64(count))

	if !oldest.IsZero() && count > 0 {
		r.metrics.OldestEventAge.Set(time.Since(oldest).Seconds())
	} else {
		r.metrics.OldestEventAge.Set(0)
	}
}

// relayedEvent implements event.DomainEvent for entries reconstructed
// from the outbox. Subscribers that need the concrete payload decode
// the raw JSON via the Payload method.
type relayedEvent struct {
	eventType     string
	aggregateID   string
	aggregateType string
	occurredAt    time.Time
	version       int
	metadata      event.Metadata
	payload       []byte
}

func (e *relayedEvent) EventType() string        { return e.eventType }
func (e *relayedEvent) AggregateID() string      { return e.aggregateID }
func (e *relayedEvent) AggregateType() string    { return e.aggregateType }
func (e *relayedEvent) OccurredAt() time.Time    { return e.occurredAt }
func (e *relayedEvent) Version() int             { return e.version }
func (e *relayedEvent) Metadata() event.Metadata { return e.metadata }

// Payload returns the raw JSON payload of the event.
func (e *relayedEvent) Payload() json.RawMessage { return e.payload }
