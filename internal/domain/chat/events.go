package chat

import (
	"time"

	"github.com/atiendo/atiendo/internal/domain/event"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

const (
	// EventTypeChatCreated is emitted when a pending chat is created
	EventTypeChatCreated = "chat.created"
	// EventTypeChatClosed is emitted when a chat is closed
	EventTypeChatClosed = "chat.closed"
)

// Created is emitted once per chat on creation.
type Created struct {
	event.BaseEvent

	VisitorID   uuid.UUID
	VisitorInfo VisitorInfo
	ChatMeta    Metadata
	CreatedAt   time.Time
}

// NewCreated creates a Created event.
func NewCreated(
	chatID, visitorID uuid.UUID,
	visitorInfo VisitorInfo,
	meta Metadata,
	createdAt time.Time,
	eventMeta event.Metadata,
) *Created {
	return &Created{
		BaseEvent:   event.NewBaseEvent(EventTypeChatCreated, chatID.String(), "Chat", 1, eventMeta),
		VisitorID:   visitorID,
		VisitorInfo: visitorInfo,
		ChatMeta:    meta,
		CreatedAt:   createdAt,
	}
}

// Closed is emitted when a chat is closed.
type Closed struct {
	event.BaseEvent

	ClosedBy uuid.UUID
	Reason   string
	ClosedAt time.Time
}

// NewClosed creates a Closed event.
func NewClosed(
	chatID, closedBy uuid.UUID,
	reason string,
	closedAt time.Time,
	eventMeta event.Metadata,
) *Closed {
	return &Closed{
		BaseEvent: event.NewBaseEvent(EventTypeChatClosed, chatID.String(), "Chat", 1, eventMeta),
		ClosedBy:  closedBy,
		Reason:    reason,
		ClosedAt:  closedAt,
	}
}
