package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atiendo/atiendo/internal/application/appcore"
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/event"
)

// CreateChatUseCase handles idempotent chat creation by external ID.
type CreateChatUseCase struct {
	chatRepo domainchat.Repository
	eventBus event.Bus
	logger   *slog.Logger
}

// NewCreateChatUseCase creates a new CreateChatUseCase.
func NewCreateChatUseCase(chatRepo domainchat.Repository, eventBus event.Bus, logger *slog.Logger) *CreateChatUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateChatUseCase{
		chatRepo: chatRepo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Execute creates a pending chat. When a chat with the given ID already
// exists the existing chat is returned as success: callers retry with
// the same external ID and must not see an error for a write that
// already happened.
func (uc *CreateChatUseCase) Execute(ctx context.Context, cmd CreateChatCommand) (Result, error) {
	if err := uc.validate(cmd); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	chatAggregate, err := domainchat.NewPendingChat(domainchat.CreateParams{
		ID:                     cmd.ChatID,
		VisitorID:              cmd.VisitorID,
		VisitorInfo:            cmd.VisitorInfo,
		AvailableCommercialIDs: cmd.AvailableCommercialIDs,
		Priority:               cmd.Priority,
		Metadata:               cmd.Metadata,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to create chat: %w", err)
	}

	if saveErr := uc.chatRepo.Save(ctx, chatAggregate); saveErr != nil {
		if errors.Is(saveErr, errs.ErrAlreadyExists) {
			return uc.returnExisting(ctx, cmd)
		}
		return Result{}, appcore.NewPersistenceError("create chat", saveErr)
	}

	events := appcore.PublishCommitted(ctx, uc.eventBus, chatAggregate, uc.logger)

	return Result{Value: chatAggregate, Events: events}, nil
}

// returnExisting loads and returns the previously created chat. The
// collision is logged so duplicate creation attempts stay observable.
func (uc *CreateChatUseCase) returnExisting(ctx context.Context, cmd CreateChatCommand) (Result, error) {
	uc.logger.InfoContext(ctx, "chat already exists, returning existing",
		slog.String("chat_id", cmd.ChatID.String()),
		slog.String("visitor_id", cmd.VisitorID.String()),
	)

	existing, findErr := uc.chatRepo.FindByID(ctx, cmd.ChatID)
	if findErr != nil {
		return Result{}, ErrChatAlreadyExists
	}
	return Result{Value: existing}, nil
}

func (uc *CreateChatUseCase) validate(cmd CreateChatCommand) error {
	if err := appcore.ValidateUUID("chatID", cmd.ChatID); err != nil {
		return err
	}
	if err := appcore.ValidateUUID("visitorID", cmd.VisitorID); err != nil {
		return err
	}
	return nil
}
