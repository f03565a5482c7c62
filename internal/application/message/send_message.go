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

// SendMessageUseCase appends a text message to a chat. Persisting the
// message is the only fatal step; everything downstream (counters,
// preview, status change, fan-out) runs off the published MessageSent
// event.
type SendMessageUseCase struct {
	chatRepo    domainchat.Repository
	messageRepo domainmessage.Repository
	eventBus    event.Bus
	logger      *slog.Logger
}

// NewSendMessageUseCase creates a new SendMessageUseCase.
func NewSendMessageUseCase(
	chatRepo domainchat.Repository,
	messageRepo domainmessage.Repository,
	eventBus event.Bus,
	logger *slog.Logger,
) *SendMessageUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendMessageUseCase{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// Execute validates the command, loads the chat and persists the
// message. A message from someone other than the visitor into a pending
// chat is flagged as the first response, which downstream handlers use
// to flip the chat to in_progress.
func (uc *SendMessageUseCase) Execute(ctx context.Context, cmd SendMessageCommand) (Result, error) {
	if err := appcore.ValidateUUID("chatID", cmd.ChatID); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := appcore.ValidateUUID("senderID", cmd.SenderID); err != nil {
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

	isFirstResponse := chatAggregate.IsPending() &&
		cmd.SenderID != chatAggregate.VisitorID() &&
		!cmd.IsInternal

	msg, err := domainmessage.NewTextMessage(domainmessage.TextParams{
		ChatID:          cmd.ChatID,
		SenderID:        cmd.SenderID,
		Content:         cmd.Content,
		IsInternal:      cmd.IsInternal,
		IsFirstResponse: isFirstResponse,
		IsAI:            cmd.IsAI,
		AIMetadata:      cmd.AIMetadata,
	})
	if err != nil {
		if errors.Is(err, errs.ErrInvalidContent) {
			return Result{}, ErrInvalidContent
		}
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	if saveErr := uc.messageRepo.Save(ctx, msg); saveErr != nil {
		return Result{}, appcore.NewPersistenceError("save message", saveErr)
	}

	events := appcore.PublishCommitted(ctx, uc.eventBus, msg, uc.logger)

	uc.logger.DebugContext(ctx, "message sent",
		slog.String("message_id", msg.ID().String()),
		slog.String("chat_id", cmd.ChatID.String()),
		slog.Bool("is_first_response", isFirstResponse),
	)

	return Result{Value: msg, Events: events}, nil
}
