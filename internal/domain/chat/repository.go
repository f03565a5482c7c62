package chat

import (
	"context"
	"time"

	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// Repository defines the chat persistence contract.
type Repository interface {
	// FindByID finds a chat by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Chat, error)

	// Save persists a chat. Creating a chat whose ID already exists
	// returns errs.ErrAlreadyExists.
	Save(ctx context.Context, c *Chat) error

	// CountPendingCreatedBefore counts pending chats created strictly
	// before the given time, scoped to department when non-empty.
	CountPendingCreatedBefore(ctx context.Context, before time.Time, department string) (int, error)
}
