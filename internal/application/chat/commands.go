// Package chat contains the chat use cases: idempotent creation,
// waiting-room joins, queue position resolution and closing.
package chat

import (
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// CreateChatCommand creates a pending chat, idempotent by ChatID.
type CreateChatCommand struct {
	ChatID                 uuid.UUID
	VisitorID              uuid.UUID
	VisitorInfo            domainchat.VisitorInfo
	AvailableCommercialIDs []uuid.UUID
	Priority               string
	Metadata               domainchat.Metadata
}

// CommandName returns the command name
func (c CreateChatCommand) CommandName() string { return "CreateChat" }

// JoinWaitingRoomCommand puts a visitor into the waiting room. Always
// creates a new pending chat; there is no idempotency key.
type JoinWaitingRoomCommand struct {
	VisitorID   uuid.UUID
	VisitorInfo domainchat.VisitorInfo
	Priority    string
	Metadata    domainchat.Metadata
}

// CommandName returns the command name
func (c JoinWaitingRoomCommand) CommandName() string { return "JoinWaitingRoom" }

// CloseChatCommand finishes a chat.
type CloseChatCommand struct {
	ChatID   uuid.UUID
	ClosedBy uuid.UUID
	Reason   string
}

// CommandName returns the command name
func (c CloseChatCommand) CommandName() string { return "CloseChat" }
