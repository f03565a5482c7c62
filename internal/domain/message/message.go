// Package message contains the message entity, its factories and the
// MessageSent event that drives the side-effect pipeline.
package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/event"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// Type represents the message kind.
type Type string

const (
	// TypeText is a regular text message
	TypeText Type = "text"
	// TypeSystem is an automatically generated message, agent-only
	TypeSystem Type = "system"
	// TypeFile is a message carrying a non-image attachment
	TypeFile Type = "file"
	// TypeImage is a message carrying an image attachment
	TypeImage Type = "image"
)

// IsVisibleToVisitor reports whether messages of this type may be shown
// to the visitor at all.
func (t Type) IsVisibleToVisitor() bool {
	return t != TypeSystem
}

// Content length bounds after trimming.
const (
	MinContentLength = 1
	MaxContentLength = 4000
)

// maxSummaryLength bounds ContentSummary.
const maxSummaryLength = 100

// SystemSenderID is the sender recorded on system messages.
const SystemSenderID = uuid.UUID("system")

// AIMetadata describes how an AI-generated message was produced.
type AIMetadata struct {
	Model     string `json:"model"      bson:"model"`
	LatencyMS int64  `json:"latency_ms" bson:"latency_ms"`
}

// Message is an append-only entry in a chat. Construction goes through
// the typed factories below; every factory records one Sent event.
type Message struct {
	id              uuid.UUID
	chatID          uuid.UUID
	senderID        uuid.UUID
	content         string
	messageType     Type
	systemData      *SystemData
	attachment      *Attachment
	isInternal      bool
	isFirstResponse bool
	isAI            bool
	aiMetadata      *AIMetadata
	createdAt       time.Time

	uncommittedEvents []event.DomainEvent
}

// TextParams holds the input for NewTextMessage.
type TextParams struct {
	ChatID          uuid.UUID
	SenderID        uuid.UUID
	Content         string
	IsInternal      bool
	IsFirstResponse bool
	IsAI            bool
	AIMetadata      *AIMetadata
}

// NewTextMessage creates a text message. Content is trimmed and must be
// 1 to 4000 characters, otherwise errs.ErrInvalidContent is returned.
func NewTextMessage(params TextParams) (*Message, error) {
	if params.ChatID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	if params.SenderID.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	content := strings.TrimSpace(params.Content)
	if len([]rune(content)) < MinContentLength || len([]rune(content)) > MaxContentLength {
		return nil, errs.ErrInvalidContent
	}

	m := &Message{
		id:              uuid.NewUUID(),
		chatID:          params.ChatID,
		senderID:        params.SenderID,
		content:         content,
		messageType:     TypeText,
		isInternal:      params.IsInternal,
		isFirstResponse: params.IsFirstResponse,
		isAI:            params.IsAI,
		aiMetadata:      params.AIMetadata,
		createdAt:       time.Now(),
	}
	m.recordSent()
	return m, nil
}

// SystemParams holds the input for NewSystemMessage.
type SystemParams struct {
	ChatID     uuid.UUID
	Action     string
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Reason     string
}

// systemContent maps known actions to their fixed visitor-language text.
var systemContent = map[string]string{
	ActionAssigned:    "Comercial asignado al chat",
	ActionTransferred: "Chat transferido a otro comercial",
	ActionJoined:      "Usuario se unió al chat",
	ActionLeft:        "Usuario abandonó el chat",
}

// NewSystemMessage creates a system message. Content is derived from the
// action; system messages are always internal and sent by "system".
func NewSystemMessage(params SystemParams) (*Message, error) {
	if params.ChatID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	if params.Action == "" {
		return nil, errs.ErrInvalidInput
	}

	content, ok := systemContent[params.Action]
	if !ok {
		content = fmt.Sprintf("Acción del sistema: %s", params.Action)
	}

	m := &Message{
		id:          uuid.NewUUID(),
		chatID:      params.ChatID,
		senderID:    SystemSenderID,
		content:     content,
		messageType: TypeSystem,
		systemData: &SystemData{
			Action:     params.Action,
			FromUserID: params.FromUserID,
			ToUserID:   params.ToUserID,
			Reason:     params.Reason,
		},
		isInternal: true,
		createdAt:  time.Now(),
	}
	m.recordSent()
	return m, nil
}

// FileParams holds the input for NewFileMessage.
type FileParams struct {
	ChatID     uuid.UUID
	SenderID   uuid.UUID
	FileName   string
	Attachment Attachment
	IsInternal bool
}

// NewFileMessage creates a file message. The type is image when the
// attachment MIME type has the image/ prefix, file otherwise.
func NewFileMessage(params FileParams) (*Message, error) {
	if params.ChatID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	if params.SenderID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	if params.FileName == "" {
		return nil, errs.ErrInvalidInput
	}
	if err := params.Attachment.Validate(); err != nil {
		return nil, err
	}

	messageType := TypeFile
	if strings.HasPrefix(params.Attachment.MimeType, "image/") {
		messageType = TypeImage
	}

	attachment := params.Attachment
	m := &Message{
		id:          uuid.NewUUID(),
		chatID:      params.ChatID,
		senderID:    params.SenderID,
		content:     fmt.Sprintf("Archivo adjunto: %s", params.FileName),
		messageType: messageType,
		attachment:  &attachment,
		isInternal:  params.IsInternal,
		createdAt:   time.Now(),
	}
	m.recordSent()
	return m, nil
}

// IsVisibleToVisitor reports whether the visitor may see this message.
func (m *Message) IsVisibleToVisitor() bool {
	return !m.isInternal && m.messageType.IsVisibleToVisitor()
}

// ContentSummary returns the content truncated to 100 characters with a
// "..." suffix when longer.
func (m *Message) ContentSummary() string {
	runes := []rune(m.content)
	if len(runes) <= maxSummaryLength {
		return m.content
	}
	return string(runes[:maxSummaryLength]) + "..."
}

func (m *Message) recordSent() {
	m.uncommittedEvents = append(m.uncommittedEvents, NewSent(m, event.Metadata{
		UserID:    m.senderID.String(),
		Timestamp: m.createdAt,
	}))
}

// UncommittedEvents returns the buffered events.
func (m *Message) UncommittedEvents() []event.DomainEvent {
	return m.uncommittedEvents
}

// MarkEventsCommitted clears the event buffer after publishing.
func (m *Message) MarkEventsCommitted() {
	m.uncommittedEvents = make([]event.DomainEvent, 0)
}

// ID returns the message ID
func (m *Message) ID() uuid.UUID { return m.id }

// ChatID returns the owning chat ID
func (m *Message) ChatID() uuid.UUID { return m.chatID }

// SenderID returns the sender, "system" for system messages
func (m *Message) SenderID() uuid.UUID { return m.senderID }

// Content returns the message content
func (m *Message) Content() string { return m.content }

// MessageType returns the message type
func (m *Message) MessageType() Type { return m.messageType }

// SystemData returns the system action payload, nil for other types
func (m *Message) SystemData() *SystemData { return m.systemData }

// Attachment returns the attachment, nil when none
func (m *Message) Attachment() *Attachment { return m.attachment }

// IsInternal reports whether the message is hidden from the visitor
func (m *Message) IsInternal() bool { return m.isInternal }

// IsFirstResponse reports whether this is the first agent message
func (m *Message) IsFirstResponse() bool { return m.isFirstResponse }

// IsAI reports whether the message was generated by the auto-responder
func (m *Message) IsAI() bool { return m.isAI }

// AIMetadata returns generation details for AI messages, nil otherwise
func (m *Message) AIMetadata() *AIMetadata { return m.aiMetadata }

// CreatedAt returns the creation time
func (m *Message) CreatedAt() time.Time { return m.createdAt }

// ReconstructMessage rebuilds a message from persistence without
// validation and without recording events. Used by repositories.
func ReconstructMessage(
	id, chatID, senderID uuid.UUID,
	content string,
	messageType Type,
	systemData *SystemData,
	attachment *Attachment,
	isInternal, isFirstResponse, isAI bool,
	aiMetadata *AIMetadata,
	createdAt time.Time,
) *Message {
	return &Message{
		id:              id,
		chatID:          chatID,
		senderID:        senderID,
		content:         content,
		messageType:     messageType,
		systemData:      systemData,
		attachment:      attachment,
		isInternal:      isInternal,
		isFirstResponse: isFirstResponse,
		isAI:            isAI,
		aiMetadata:      aiMetadata,
		createdAt:       createdAt,
	}
}
