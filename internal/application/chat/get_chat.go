package chat

import (
	"context"
	"errors"

	"github.com/atiendo/atiendo/internal/application/appcore"
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// GetChatUseCase loads a single chat by ID.
type GetChatUseCase struct {
	chatRepo domainchat.Repository
}

// NewGetChatUseCase creates a new GetChatUseCase.
func NewGetChatUseCase(chatRepo domainchat.Repository) *GetChatUseCase {
	return &GetChatUseCase{chatRepo: chatRepo}
}

// Execute returns the chat or ErrChatNotFound.
func (uc *GetChatUseCase) Execute(ctx context.Context, chatID uuid.UUID) (*domainchat.Chat, error) {
	if err := appcore.ValidateUUID("chatID", chatID); err != nil {
		return nil, err
	}

	chatAggregate, err := uc.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, appcore.NewPersistenceError("load chat", err)
	}
	return chatAggregate, nil
}
