package message

import (
	"time"

	"github.com/atiendo/atiendo/internal/domain/event"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// EventTypeMessageSent is recorded once per message on construction.
const EventTypeMessageSent = "message.sent"

// Sent carries the full message snapshot. It is the only event the
// side-effect pipeline reacts to: the chat summary update and the
// real-time fan-out are both driven by it.
type Sent struct {
	event.BaseEvent

	MessageID       uuid.UUID
	ChatID          uuid.UUID
	SenderID        uuid.UUID
	Content         string
	MessageType     Type
	IsInternal      bool
	IsFirstResponse bool
	SentAt          time.Time
	Attachment      *Attachment
	IsAI            bool
	AIMetadata      *AIMetadata
}

// NewSent creates a Sent event from a fully constructed message.
func NewSent(m *Message, eventMeta event.Metadata) *Sent {
	return &Sent{
		BaseEvent:       event.NewBaseEvent(EventTypeMessageSent, m.ID().String(), "Message", 1, eventMeta),
		MessageID:       m.ID(),
		ChatID:          m.ChatID(),
		SenderID:        m.SenderID(),
		Content:         m.Content(),
		MessageType:     m.MessageType(),
		IsInternal:      m.IsInternal(),
		IsFirstResponse: m.IsFirstResponse(),
		SentAt:          m.CreatedAt(),
		Attachment:      m.Attachment(),
		IsAI:            m.IsAI(),
		AIMetadata:      m.AIMetadata(),
	}
}
