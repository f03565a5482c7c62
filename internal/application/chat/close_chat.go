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
	"github.com/atiendo/atiendo/internal/domain/message"
)

// CloseChatUseCase finishes a chat and records a system message so the
// agent timeline shows who ended the conversation.
type CloseChatUseCase struct {
	chatRepo    domainchat.Repository
	messageRepo message.Repository
	eventBus    event.Bus
	logger      *slog.Logger
}

// NewCloseChatUseCase creates a new CloseChatUseCase.
func NewCloseChatUseCase(
	chatRepo domainchat.Repository,
	messageRepo message.Repository,
	eventBus event.Bus,
	logger *slog.Logger,
) *CloseChatUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloseChatUseCase{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// Execute closes the chat and appends a "left" system message. The
// system message is best-effort: the close stands even if it fails.
func (uc *CloseChatUseCase) Execute(ctx context.Context, cmd CloseChatCommand) (Result, error) {
	if err := appcore.ValidateUUID("chatID", cmd.ChatID); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := appcore.ValidateUUID("closedBy", cmd.ClosedBy); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	chatAggregate, err := uc.chatRepo.FindByID(ctx, cmd.ChatID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Result{}, ErrChatNotFound
		}
		return Result{}, appcore.NewPersistenceError("load chat", err)
	}

	if closeErr := chatAggregate.Close(cmd.ClosedBy, cmd.Reason); closeErr != nil {
		return Result{}, ErrChatClosed
	}

	if saveErr := uc.chatRepo.Save(ctx, chatAggregate); saveErr != nil {
		return Result{}, appcore.NewPersistenceError("close chat", saveErr)
	}

	events := appcore.PublishCommitted(ctx, uc.eventBus, chatAggregate, uc.logger)

	uc.recordSystemMessage(ctx, cmd)

	return Result{Value: chatAggregate, Events: events}, nil
}

func (uc *CloseChatUseCase) recordSystemMessage(ctx context.Context, cmd CloseChatCommand) {
	sysMsg, err := message.NewSystemMessage(message.SystemParams{
		ChatID:     cmd.ChatID,
		Action:     message.ActionLeft,
		FromUserID: cmd.ClosedBy,
		Reason:     cmd.Reason,
	})
	if err != nil {
		uc.logger.WarnContext(ctx, "failed to build close system message",
			slog.String("chat_id", cmd.ChatID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	if saveErr := uc.messageRepo.Save(ctx, sysMsg); saveErr != nil {
		uc.logger.WarnContext(ctx, "failed to save close system message",
			slog.String("chat_id", cmd.ChatID.String()),
			slog.String("error", saveErr.Error()),
		)
		return
	}

	appcore.PublishCommitted(ctx, uc.eventBus, sysMsg, uc.logger)
}
