package chat

import (
	"context"
	"log/slog"

	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
)

// Sequencer hands out monotonic waiting-room positions. It is the
// strict-ordering alternative to the count-based estimate; wired only
// when queue.strict_ordering is enabled in configuration.
type Sequencer interface {
	// Next returns the next position for the given department scope.
	Next(ctx context.Context, department string) (int, error)
}

// QueuePositionResolver computes a visitor's waiting-room position for
// a freshly created pending chat.
//
// The default strategy counts pending chats created before the chat and
// adds one. Count-then-insert is not serialized: two visitors joining
// within the same count window can receive the same position. That is
// accepted for this soft, visitor-facing estimate; configure a
// Sequencer for strict ordering.
type QueuePositionResolver struct {
	chatRepo  domainchat.Repository
	sequencer Sequencer
	logger    *slog.Logger
}

// ResolverOption configures a QueuePositionResolver.
type ResolverOption func(*QueuePositionResolver)

// WithSequencer enables strict monotonic positions.
func WithSequencer(seq Sequencer) ResolverOption {
	return func(r *QueuePositionResolver) {
		r.sequencer = seq
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *QueuePositionResolver) {
		r.logger = logger
	}
}

// NewQueuePositionResolver creates a resolver using the count-based
// strategy unless a Sequencer option is provided.
func NewQueuePositionResolver(chatRepo domainchat.Repository, opts ...ResolverOption) *QueuePositionResolver {
	r := &QueuePositionResolver{
		chatRepo: chatRepo,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the queue position for a pending chat. When the count
// query fails the resolver returns position 1 instead of propagating
// the error; the join must not fail on a reporting-grade read.
//
// NOTE: the 1-on-failure default masks backend errors as "you are
// first in queue". Kept for compatibility with the existing widget
// contract; flagged for product review.
func (r *QueuePositionResolver) Resolve(ctx context.Context, c *domainchat.Chat) int {
	department := c.Metadata().Department

	if r.sequencer != nil {
		position, err := r.sequencer.Next(ctx, department)
		if err == nil {
			return position
		}
		r.logger.WarnContext(ctx, "sequencer failed, falling back to count",
			slog.String("chat_id", c.ID().String()),
			slog.String("error", err.Error()),
		)
	}

	count, err := r.chatRepo.CountPendingCreatedBefore(ctx, c.CreatedAt(), department)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to count pending chats, defaulting to position 1",
			slog.String("chat_id", c.ID().String()),
			slog.String("department", department),
			slog.String("error", err.Error()),
		)
		return 1
	}

	return count + 1
}
