package message

import (
	"context"
	"log/slog"

	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/event"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
)

// Service bundles the message use cases behind a single entry point for
// the HTTP layer.
type Service struct {
	send     *SendMessageUseCase
	sendFile *SendFileMessageUseCase
	list     *ListMessagesUseCase
}

// NewService creates a Service wired to the given repositories.
func NewService(
	chatRepo domainchat.Repository,
	messageRepo domainmessage.Repository,
	eventBus event.Bus,
	logger *slog.Logger,
) *Service {
	return &Service{
		send:     NewSendMessageUseCase(chatRepo, messageRepo, eventBus, logger),
		sendFile: NewSendFileMessageUseCase(chatRepo, messageRepo, eventBus, logger),
		list:     NewListMessagesUseCase(chatRepo, messageRepo, logger),
	}
}

// SendMessage appends a text message to a chat.
func (s *Service) SendMessage(ctx context.Context, cmd SendMessageCommand) (Result, error) {
	return s.send.Execute(ctx, cmd)
}

// SendFileMessage appends a message carrying an attachment.
func (s *Service) SendFileMessage(ctx context.Context, cmd SendFileMessageCommand) (Result, error) {
	return s.sendFile.Execute(ctx, cmd)
}

// ListMessages pages through a chat's messages, newest first.
func (s *Service) ListMessages(ctx context.Context, query ListMessagesQuery) (ListMessagesResult, error) {
	return s.list.Execute(ctx, query)
}
