package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atiendo/atiendo/internal/application/appcore"
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/event"
)

// JoinWaitingRoomUseCase creates a pending chat for a visitor and
// computes their position in the waiting room.
type JoinWaitingRoomUseCase struct {
	chatRepo domainchat.Repository
	resolver *QueuePositionResolver
	eventBus event.Bus
	logger   *slog.Logger
}

// NewJoinWaitingRoomUseCase creates a new JoinWaitingRoomUseCase.
func NewJoinWaitingRoomUseCase(
	chatRepo domainchat.Repository,
	resolver *QueuePositionResolver,
	eventBus event.Bus,
	logger *slog.Logger,
) *JoinWaitingRoomUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &JoinWaitingRoomUseCase{
		chatRepo: chatRepo,
		resolver: resolver,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Execute creates a new pending chat (always; joins carry no
// idempotency key) and returns its waiting-room position. Persistence
// failure is fatal to the command; a position-count failure is not.
func (uc *JoinWaitingRoomUseCase) Execute(
	ctx context.Context,
	cmd JoinWaitingRoomCommand,
) (JoinWaitingRoomResult, error) {
	if err := appcore.ValidateUUID("visitorID", cmd.VisitorID); err != nil {
		return JoinWaitingRoomResult{}, fmt.Errorf("validation failed: %w", err)
	}

	chatAggregate, err := domainchat.NewPendingChat(domainchat.CreateParams{
		VisitorID:   cmd.VisitorID,
		VisitorInfo: cmd.VisitorInfo,
		Priority:    cmd.Priority,
		Metadata:    cmd.Metadata,
	})
	if err != nil {
		return JoinWaitingRoomResult{}, fmt.Errorf("failed to create pending chat: %w", err)
	}

	if saveErr := uc.chatRepo.Save(ctx, chatAggregate); saveErr != nil {
		return JoinWaitingRoomResult{}, appcore.NewPersistenceError("join waiting room", saveErr)
	}

	appcore.PublishCommitted(ctx, uc.eventBus, chatAggregate, uc.logger)

	position := uc.resolver.Resolve(ctx, chatAggregate)

	uc.logger.DebugContext(ctx, "visitor joined waiting room",
		slog.String("chat_id", chatAggregate.ID().String()),
		slog.String("visitor_id", cmd.VisitorID.String()),
		slog.String("department", cmd.Metadata.Department),
		slog.Int("position", position),
	)

	return JoinWaitingRoomResult{
		ChatID:   chatAggregate.ID(),
		Chat:     chatAggregate,
		Position: position,
	}, nil
}
