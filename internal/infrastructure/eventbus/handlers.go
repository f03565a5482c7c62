package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/event"
	"github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
	"github.com/atiendo/atiendo/internal/infrastructure/websocket"
)

// PayloadEvent is an interface for events that carry raw JSON payload.
// This is implemented by deserializedEvent for events received from Redis.
type PayloadEvent interface {
	event.DomainEvent
	Payload() json.RawMessage
}

// sentSnapshot is the part of the MessageSent payload the handlers need.
type sentSnapshot struct {
	MessageID       uuid.UUID
	ChatID          uuid.UUID
	SenderID        uuid.UUID
	Content         string
	MessageType     message.Type
	IsInternal      bool
	IsFirstResponse bool
	SentAt          time.Time
	Attachment      *message.Attachment
	IsAI            bool
	AIMetadata      *message.AIMetadata
}

// extractSent reads the MessageSent snapshot out of an event, whether
// it arrived in process or deserialized from Redis.
func extractSent(evt event.DomainEvent) (sentSnapshot, error) {
	switch e := evt.(type) {
	case *message.Sent:
		return sentSnapshot{
			MessageID:       e.MessageID,
			ChatID:          e.ChatID,
			SenderID:        e.SenderID,
			Content:         e.Content,
			MessageType:     e.MessageType,
			IsInternal:      e.IsInternal,
			IsFirstResponse: e.IsFirstResponse,
			SentAt:          e.SentAt,
			Attachment:      e.Attachment,
			IsAI:            e.IsAI,
			AIMetadata:      e.AIMetadata,
		}, nil
	case PayloadEvent:
		var snapshot sentSnapshot
		if err := json.Unmarshal(e.Payload(), &snapshot); err != nil {
			return sentSnapshot{}, fmt.Errorf("failed to unmarshal message.sent payload: %w", err)
		}
		return snapshot, nil
	default:
		return sentSnapshot{}, fmt.Errorf("unexpected event type %T for %s", evt, evt.EventType())
	}
}

// ChatSummaryHandler reacts to message.sent by refreshing the chat's
// denormalized summary: preview, last sender, last activity and the
// authoritative message count. A first commercial response also flips
// the chat to in_progress.
type ChatSummaryHandler struct {
	chatRepo    chat.Repository
	messageRepo message.Repository
	logger      *slog.Logger
}

// ChatSummaryHandlerOption configures ChatSummaryHandler.
type ChatSummaryHandlerOption func(*ChatSummaryHandler)

// WithChatSummaryLogger sets the logger for ChatSummaryHandler.
func WithChatSummaryLogger(logger *slog.Logger) ChatSummaryHandlerOption {
	return func(h *ChatSummaryHandler) {
		h.logger = logger
	}
}

// NewChatSummaryHandler creates a new ChatSummaryHandler.
func NewChatSummaryHandler(
	chatRepo chat.Repository,
	messageRepo message.Repository,
	opts ...ChatSummaryHandlerOption,
) *ChatSummaryHandler {
	h := &ChatSummaryHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes a message.sent event. The message itself is already
// committed, so a chat that disappeared in the meantime is logged and
// skipped rather than treated as a failure worth retrying forever.
func (h *ChatSummaryHandler) Handle(ctx context.Context, evt event.DomainEvent) error {
	if evt.EventType() != message.EventTypeMessageSent {
		return nil
	}

	sent, err := extractSent(evt)
	if err != nil {
		return err
	}

	chatAggregate, err := h.chatRepo.FindByID(ctx, sent.ChatID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			h.logger.WarnContext(ctx, "chat gone, skipping summary update",
				slog.String("chat_id", sent.ChatID.String()),
			)
			return nil
		}
		return fmt.Errorf("failed to load chat: %w", err)
	}

	// The count comes from the message store every time. Incrementing
	// the stored value would drift on redelivery.
	total, err := h.messageRepo.CountByChatID(ctx, sent.ChatID)
	if err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}

	updated := chatAggregate.UpdateLastMessage(sent.Content, sent.SenderID, sent.SentAt, total)
	if sent.IsFirstResponse {
		updated.MarkInProgress()
	}

	if saveErr := h.chatRepo.Save(ctx, updated); saveErr != nil {
		return fmt.Errorf("failed to save chat summary: %w", saveErr)
	}

	h.logger.DebugContext(ctx, "chat summary updated",
		slog.String("chat_id", sent.ChatID.String()),
		slog.Int("total_messages", total),
		slog.Bool("is_first_response", sent.IsFirstResponse),
	)

	return nil
}

// RoomEmitter pushes a named wire event with a payload to every client
// in a room. Implemented by the websocket hub.
type RoomEmitter interface {
	EmitToRoom(room, eventName string, payload any) error
}

// messagePayload is the message:new wire payload. Clients rely on the
// exact key set, so isAI and isFirstResponse are always present even
// when false.
type messagePayload struct {
	ChatID          string              `json:"chatId"`
	MessageID       string              `json:"messageId"`
	SenderID        string              `json:"senderId"`
	Content         string              `json:"content"`
	MessageType     string              `json:"type"`
	IsInternal      bool                `json:"isInternal"`
	IsFirstResponse bool                `json:"isFirstResponse"`
	IsAI            bool                `json:"isAI"`
	AIMetadata      *message.AIMetadata `json:"aiMetadata,omitempty"`
	Attachment      *message.Attachment `json:"attachment,omitempty"`
	SentAt          time.Time           `json:"sentAt"`
}

// statusPayload is the chat:status wire payload.
type statusPayload struct {
	ChatID    string    `json:"chatId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// statusInProgress is the wire spelling of the in_progress status.
const statusInProgress = "IN_PROGRESS"

// RealtimeHandler reacts to message.sent by pushing wire events to the
// chat rooms. Internal messages only ever reach the agent room; the
// first commercial response additionally announces the status change.
type RealtimeHandler struct {
	emitter RoomEmitter
	logger  *slog.Logger
}

// RealtimeHandlerOption configures RealtimeHandler.
type RealtimeHandlerOption func(*RealtimeHandler)

// WithRealtimeLogger sets the logger for RealtimeHandler.
func WithRealtimeLogger(logger *slog.Logger) RealtimeHandlerOption {
	return func(h *RealtimeHandler) {
		h.logger = logger
	}
}

// NewRealtimeHandler creates a new RealtimeHandler.
func NewRealtimeHandler(emitter RoomEmitter, opts ...RealtimeHandlerOption) *RealtimeHandler {
	h := &RealtimeHandler{
		emitter: emitter,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle pushes the message to the right room and, for the first
// commercial response, the status change to the shared room.
func (h *RealtimeHandler) Handle(ctx context.Context, evt event.DomainEvent) error {
	if evt.EventType() != message.EventTypeMessageSent {
		return nil
	}

	sent, err := extractSent(evt)
	if err != nil {
		return err
	}

	payload := messagePayload{
		ChatID:          sent.ChatID.String(),
		MessageID:       sent.MessageID.String(),
		SenderID:        sent.SenderID.String(),
		Content:         sent.Content,
		MessageType:     string(sent.MessageType),
		IsInternal:      sent.IsInternal,
		IsFirstResponse: sent.IsFirstResponse,
		IsAI:            sent.IsAI,
		AIMetadata:      sent.AIMetadata,
		Attachment:      sent.Attachment,
		SentAt:          sent.SentAt,
	}

	room := websocket.ChatRoom(sent.ChatID)
	if sent.IsInternal {
		room = websocket.ChatCommercialRoom(sent.ChatID)
	}
	if emitErr := h.emitter.EmitToRoom(room, websocket.EventMessageNew, payload); emitErr != nil {
		return fmt.Errorf("failed to emit %s: %w", websocket.EventMessageNew, emitErr)
	}

	if sent.IsFirstResponse {
		status := statusPayload{
			ChatID:    sent.ChatID.String(),
			Status:    statusInProgress,
			Timestamp: sent.SentAt,
		}
		if emitErr := h.emitter.EmitToRoom(
			websocket.ChatRoom(sent.ChatID), websocket.EventChatStatus, status,
		); emitErr != nil {
			return fmt.Errorf("failed to emit %s: %w", websocket.EventChatStatus, emitErr)
		}
	}

	h.logger.DebugContext(ctx, "realtime events emitted",
		slog.String("chat_id", sent.ChatID.String()),
		slog.String("room", room),
		slog.Bool("is_first_response", sent.IsFirstResponse),
	)

	return nil
}
