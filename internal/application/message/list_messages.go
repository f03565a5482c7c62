package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/atiendo/atiendo/internal/application/appcore"
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/errs"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// ListMessagesUseCase pages through a chat's messages. The visitor view
// filters out internal and system messages.
type ListMessagesUseCase struct {
	chatRepo    domainchat.Repository
	messageRepo domainmessage.Repository
	logger      *slog.Logger
}

// NewListMessagesUseCase creates a new ListMessagesUseCase.
func NewListMessagesUseCase(
	chatRepo domainchat.Repository,
	messageRepo domainmessage.Repository,
	logger *slog.Logger,
) *ListMessagesUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListMessagesUseCase{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// Execute returns one page of messages plus the chat total.
func (uc *ListMessagesUseCase) Execute(
	ctx context.Context,
	query ListMessagesQuery,
) (ListMessagesResult, error) {
	if err := appcore.ValidateUUID("chatID", query.ChatID); err != nil {
		return ListMessagesResult{}, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := uc.chatRepo.FindByID(ctx, query.ChatID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return ListMessagesResult{}, ErrChatNotFound
		}
		return ListMessagesResult{}, appcore.NewPersistenceError("load chat", err)
	}

	pagination := normalizePagination(query.Pagination)
	messages, err := uc.messageRepo.FindByChatID(ctx, query.ChatID, pagination)
	if err != nil {
		return ListMessagesResult{}, appcore.NewPersistenceError("list messages", err)
	}

	if query.VisitorView {
		messages = lo.Filter(messages, func(m *domainmessage.Message, _ int) bool {
			return m.IsVisibleToVisitor()
		})
	}

	total, err := uc.messageRepo.CountByChatID(ctx, query.ChatID)
	if err != nil {
		return ListMessagesResult{}, appcore.NewPersistenceError("count messages", err)
	}

	return ListMessagesResult{Messages: messages, Total: total}, nil
}

func normalizePagination(p domainmessage.Pagination) domainmessage.Pagination {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
