package message

import (
	"context"

	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// Pagination bounds message listing queries.
type Pagination struct {
	Limit  int
	Offset int
}

// Repository defines the message persistence contract.
type Repository interface {
	// FindByID finds a message by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)

	// FindByChatID lists messages of a chat, newest first
	FindByChatID(ctx context.Context, chatID uuid.UUID, pagination Pagination) ([]*Message, error)

	// CountByChatID returns the authoritative message count for a chat
	CountByChatID(ctx context.Context, chatID uuid.UUID) (int, error)

	// Save persists a message (append-only)
	Save(ctx context.Context, m *Message) error
}
