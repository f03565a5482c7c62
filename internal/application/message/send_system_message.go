package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atiendo/atiendo/internal/application/appcore"
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/event"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
)

// SendSystemMessageUseCase appends an automatic message to the agent
// timeline: assignments, transfers, joins and leaves.
type SendSystemMessageUseCase struct {
	chatRepo    domainchat.Repository
	messageRepo domainmessage.Repository
	eventBus    event.Bus
	logger      *slog.Logger
}

// NewSendSystemMessageUseCase creates a new SendSystemMessageUseCase.
func NewSendSystemMessageUseCase(
	chatRepo domainchat.Repository,
	messageRepo domainmessage.Repository,
	eventBus event.Bus,
	logger *slog.Logger,
) *SendSystemMessageUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendSystemMessageUseCase{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// Execute records a system message. System messages are allowed on a
// closed chat: the "left" entry that closing produces goes through the
// same path.
func (uc *SendSystemMessageUseCase) Execute(
	ctx context.Context,
	cmd SendSystemMessageCommand,
) (Result, error) {
	if err := appcore.ValidateUUID("chatID", cmd.ChatID); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := appcore.ValidateRequired("action", cmd.Action); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := uc.chatRepo.FindByID(ctx, cmd.ChatID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Result{}, ErrChatNotFound
		}
		return Result{}, appcore.NewPersistenceError("load chat", err)
	}

	msg, err := domainmessage.NewSystemMessage(domainmessage.SystemParams{
		ChatID:     cmd.ChatID,
		Action:     cmd.Action,
		FromUserID: cmd.FromUserID,
		ToUserID:   cmd.ToUserID,
		Reason:     cmd.Reason,
	})
	if err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	if saveErr := uc.messageRepo.Save(ctx, msg); saveErr != nil {
		return Result{}, appcore.NewPersistenceError("save system message", saveErr)
	}

	events := appcore.PublishCommitted(ctx, uc.eventBus, msg, uc.logger)

	return Result{Value: msg, Events: events}, nil
}
