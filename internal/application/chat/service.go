package chat

import (
	"context"
	"log/slog"

	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/event"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// Service bundles the chat use cases behind a single entry point for
// the HTTP layer.
type Service struct {
	create *CreateChatUseCase
	join   *JoinWaitingRoomUseCase
	close  *CloseChatUseCase
	get    *GetChatUseCase
}

// NewService creates a Service wired to the given dependencies. The
// resolver decides how waiting room positions are computed.
func NewService(
	chatRepo domainchat.Repository,
	messageRepo domainmessage.Repository,
	resolver *QueuePositionResolver,
	eventBus event.Bus,
	logger *slog.Logger,
) *Service {
	return &Service{
		create: NewCreateChatUseCase(chatRepo, eventBus, logger),
		join:   NewJoinWaitingRoomUseCase(chatRepo, resolver, eventBus, logger),
		close:  NewCloseChatUseCase(chatRepo, messageRepo, eventBus, logger),
		get:    NewGetChatUseCase(chatRepo),
	}
}

// CreateChat creates a pending chat, idempotent on the supplied ID.
func (s *Service) CreateChat(ctx context.Context, cmd CreateChatCommand) (Result, error) {
	return s.create.Execute(ctx, cmd)
}

// JoinWaitingRoom creates a pending chat and assigns a queue position.
func (s *Service) JoinWaitingRoom(ctx context.Context, cmd JoinWaitingRoomCommand) (JoinWaitingRoomResult, error) {
	return s.join.Execute(ctx, cmd)
}

// CloseChat finishes a chat.
func (s *Service) CloseChat(ctx context.Context, cmd CloseChatCommand) (Result, error) {
	return s.close.Execute(ctx, cmd)
}

// GetChat gets a chat by ID.
func (s *Service) GetChat(ctx context.Context, chatID uuid.UUID) (*domainchat.Chat, error) {
	return s.get.Execute(ctx, chatID)
}
