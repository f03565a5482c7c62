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

// SendFileMessageUseCase appends an attachment message to a chat.
type SendFileMessageUseCase struct {
	chatRepo    domainchat.Repository
	messageRepo domainmessage.Repository
	eventBus    event.Bus
	logger      *slog.Logger
}

// NewSendFileMessageUseCase creates a new SendFileMessageUseCase.
func NewSendFileMessageUseCase(
	chatRepo domainchat.Repository,
	messageRepo domainmessage.Repository,
	eventBus event.Bus,
	logger *slog.Logger,
) *SendFileMessageUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendFileMessageUseCase{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// Execute validates the attachment and persists the file message. The
// message type resolves to image or file from the attachment MIME type.
func (uc *SendFileMessageUseCase) Execute(
	ctx context.Context,
	cmd SendFileMessageCommand,
) (Result, error) {
	if err := appcore.ValidateUUID("chatID", cmd.ChatID); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := appcore.ValidateUUID("senderID", cmd.SenderID); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := appcore.ValidateRequired("fileName", cmd.FileName); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	chatAggregate, err := uc.chatRepo.FindByID(ctx, cmd.ChatID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Result{}, ErrChatNotFound
		}
		return Result{}, appcore.NewPersistenceError("load chat", err)
	}
	if chatAggregate.Status() == domainchat.StatusClosed {
		return Result{}, ErrChatClosed
	}

	msg, err := domainmessage.NewFileMessage(domainmessage.FileParams{
		ChatID:     cmd.ChatID,
		SenderID:   cmd.SenderID,
		FileName:   cmd.FileName,
		Attachment: cmd.Attachment,
		IsInternal: cmd.IsInternal,
	})
	if err != nil {
		return Result{}, ErrInvalidAttachment
	}

	if saveErr := uc.messageRepo.Save(ctx, msg); saveErr != nil {
		return Result{}, appcore.NewPersistenceError("save file message", saveErr)
	}

	events := appcore.PublishCommitted(ctx, uc.eventBus, msg, uc.logger)

	return Result{Value: msg, Events: events}, nil
}
