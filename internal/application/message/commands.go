// Package message contains the messaging use cases: sending text,
// system and file messages into a chat.
package message

import (
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// SendMessageCommand sends a text message into a chat.
type SendMessageCommand struct {
	ChatID     uuid.UUID
	SenderID   uuid.UUID
	Content    string
	IsInternal bool
	IsAI       bool
	AIMetadata *domainmessage.AIMetadata
}

// CommandName returns the command name
func (c SendMessageCommand) CommandName() string { return "SendMessage" }

// SendSystemMessageCommand appends an automatic system message.
type SendSystemMessageCommand struct {
	ChatID     uuid.UUID
	Action     string
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Reason     string
}

// CommandName returns the command name
func (c SendSystemMessageCommand) CommandName() string { return "SendSystemMessage" }

// SendFileMessageCommand sends a message carrying an attachment.
type SendFileMessageCommand struct {
	ChatID     uuid.UUID
	SenderID   uuid.UUID
	FileName   string
	Attachment domainmessage.Attachment
	IsInternal bool
}

// CommandName returns the command name
func (c SendFileMessageCommand) CommandName() string { return "SendFileMessage" }

// ListMessagesQuery pages through a chat's messages.
type ListMessagesQuery struct {
	ChatID           uuid.UUID
	Pagination       domainmessage.Pagination
	VisitorView      bool
	RequestingUserID uuid.UUID
}

// CommandName returns the query name
func (q ListMessagesQuery) CommandName() string { return "ListMessages" }
