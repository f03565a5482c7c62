// Package chat contains the chat aggregate and its domain events.
package chat

import (
	"slices"
	"time"

	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/event"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// Status represents the lifecycle status of a chat.
type Status string

const (
	// StatusPending marks a chat not yet answered by any commercial
	StatusPending Status = "pending"
	// StatusInProgress marks a chat after the first commercial response
	StatusInProgress Status = "in_progress"
	// StatusClosed marks a finished chat
	StatusClosed Status = "closed"
)

// Priority levels for pending chats.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// MaxPreviewLength bounds the last-message preview stored on the chat.
const MaxPreviewLength = 100

// VisitorInfo is the denormalized visitor snapshot kept on the chat
// for reporting.
type VisitorInfo struct {
	Name  string `json:"name"  bson:"name"`
	Email string `json:"email" bson:"email"`
	IP    string `json:"ip"    bson:"ip"`
}

// Metadata carries routing and attribution data for a chat.
type Metadata struct {
	Department string            `json:"department,omitempty" bson:"department,omitempty"`
	Source     string            `json:"source,omitempty"     bson:"source,omitempty"`
	Tags       []string          `json:"tags,omitempty"       bson:"tags,omitempty"`
	UTM        map[string]string `json:"utm,omitempty"        bson:"utm,omitempty"`
}

// Chat is the conversation aggregate between a visitor and zero or more
// commercials. It buffers uncommitted events until persisted.
type Chat struct {
	id                     uuid.UUID
	visitorID              uuid.UUID
	visitorInfo            VisitorInfo
	availableCommercialIDs []uuid.UUID
	priority               string
	metadata               Metadata
	status                 Status

	lastMessageContent  string
	lastMessageSenderID uuid.UUID
	lastMessageAt       *time.Time
	totalMessages       int

	createdAt time.Time
	updatedAt time.Time
	closedAt  *time.Time

	uncommittedEvents []event.DomainEvent
}

// CreateParams holds the input for NewPendingChat. ID may be set by the
// caller for idempotent creation by external ID; when zero a new one is
// generated.
type CreateParams struct {
	ID                     uuid.UUID
	VisitorID              uuid.UUID
	VisitorInfo            VisitorInfo
	AvailableCommercialIDs []uuid.UUID
	Priority               string
	Metadata               Metadata
}

// NewPendingChat creates a chat in the pending status with no commercial
// assigned and records a Created event.
func NewPendingChat(params CreateParams) (*Chat, error) {
	if params.VisitorID.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	priority := params.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !isValidPriority(priority) {
		return nil, errs.ErrInvalidInput
	}

	id := params.ID
	if id.IsZero() {
		id = uuid.NewUUID()
	}

	now := time.Now()
	c := &Chat{
		id:                     id,
		visitorID:              params.VisitorID,
		visitorInfo:            params.VisitorInfo,
		availableCommercialIDs: slices.Clone(params.AvailableCommercialIDs),
		priority:               priority,
		metadata:               params.Metadata,
		status:                 StatusPending,
		createdAt:              now,
		updatedAt:              now,
		uncommittedEvents:      make([]event.DomainEvent, 0),
	}

	c.record(NewCreated(c.id, c.visitorID, c.visitorInfo, c.metadata, c.createdAt, event.Metadata{
		UserID:        c.visitorID.String(),
		CorrelationID: uuid.NewUUID().String(),
		Timestamp:     now,
	}))

	return c, nil
}

// UpdateLastMessage returns a copy of the chat with the last-message
// summary replaced. The receiver is not mutated, which keeps the method
// safe for append-only persistence strategies. totalMessages must be
// the authoritative count from the message store, never a blind
// increment.
func (c *Chat) UpdateLastMessage(
	contentPreview string,
	senderID uuid.UUID,
	sentAt time.Time,
	totalMessages int,
) *Chat {
	updated := *c
	updated.lastMessageContent = TruncatePreview(contentPreview)
	updated.lastMessageSenderID = senderID
	updated.lastMessageAt = &sentAt
	updated.totalMessages = totalMessages
	updated.updatedAt = time.Now()
	updated.uncommittedEvents = nil
	return &updated
}

// MarkInProgress transitions a pending chat after the first commercial
// response. Calling it on a non-pending chat is a no-op.
func (c *Chat) MarkInProgress() {
	if c.status != StatusPending {
		return
	}
	c.status = StatusInProgress
	c.updatedAt = time.Now()
}

// Close finishes the chat. Closing an already closed chat fails.
func (c *Chat) Close(closedBy uuid.UUID, reason string) error {
	if c.status == StatusClosed {
		return errs.ErrInvalidState
	}

	now := time.Now()
	c.status = StatusClosed
	c.closedAt = &now
	c.updatedAt = now

	c.record(NewClosed(c.id, closedBy, reason, now, event.Metadata{
		UserID:    closedBy.String(),
		Timestamp: now,
	}))
	return nil
}

// IsPending reports whether no commercial has responded yet.
func (c *Chat) IsPending() bool {
	return c.status == StatusPending
}

func (c *Chat) record(evt event.DomainEvent) {
	c.uncommittedEvents = append(c.uncommittedEvents, evt)
}

// UncommittedEvents returns the buffered events.
func (c *Chat) UncommittedEvents() []event.DomainEvent {
	return c.uncommittedEvents
}

// MarkEventsCommitted clears the event buffer after publishing.
func (c *Chat) MarkEventsCommitted() {
	c.uncommittedEvents = make([]event.DomainEvent, 0)
}

// ID returns the chat ID
func (c *Chat) ID() uuid.UUID { return c.id }

// VisitorID returns the owning visitor ID
func (c *Chat) VisitorID() uuid.UUID { return c.visitorID }

// VisitorInfo returns the denormalized visitor snapshot
func (c *Chat) VisitorInfo() VisitorInfo { return c.visitorInfo }

// AvailableCommercialIDs returns a copy of the eligible commercial IDs
func (c *Chat) AvailableCommercialIDs() []uuid.UUID {
	return slices.Clone(c.availableCommercialIDs)
}

// Priority returns the chat priority
func (c *Chat) Priority() string { return c.priority }

// Metadata returns the routing metadata
func (c *Chat) Metadata() Metadata { return c.metadata }

// Status returns the chat status
func (c *Chat) Status() Status { return c.status }

// LastMessageContent returns the truncated preview of the last message
func (c *Chat) LastMessageContent() string { return c.lastMessageContent }

// LastMessageSenderID returns the sender of the last message
func (c *Chat) LastMessageSenderID() uuid.UUID { return c.lastMessageSenderID }

// LastMessageAt returns the time of the last message
func (c *Chat) LastMessageAt() *time.Time { return c.lastMessageAt }

// TotalMessages returns the cached authoritative message count
func (c *Chat) TotalMessages() int { return c.totalMessages }

// CreatedAt returns the creation time
func (c *Chat) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last mutation time
func (c *Chat) UpdatedAt() time.Time { return c.updatedAt }

// ClosedAt returns the close time, nil while open
func (c *Chat) ClosedAt() *time.Time { return c.closedAt }

// TruncatePreview shortens content to MaxPreviewLength runes appending
// "..." when truncated.
func TruncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxPreviewLength {
		return content
	}
	return string(runes[:MaxPreviewLength]) + "..."
}

func isValidPriority(priority string) bool {
	return priority == PriorityLow || priority == PriorityNormal ||
		priority == PriorityHigh || priority == PriorityUrgent
}

// ReconstructChat rebuilds a chat from persistence without validation.
// Used by repositories for hydration.
func ReconstructChat(
	id, visitorID uuid.UUID,
	visitorInfo VisitorInfo,
	availableCommercialIDs []uuid.UUID,
	priority string,
	metadata Metadata,
	status Status,
	lastMessageContent string,
	lastMessageSenderID uuid.UUID,
	lastMessageAt *time.Time,
	totalMessages int,
	createdAt, updatedAt time.Time,
	closedAt *time.Time,
) *Chat {
	return &Chat{
		id:                     id,
		visitorID:              visitorID,
		visitorInfo:            visitorInfo,
		availableCommercialIDs: availableCommercialIDs,
		priority:               priority,
		metadata:               metadata,
		status:                 status,
		lastMessageContent:     lastMessageContent,
		lastMessageSenderID:    lastMessageSenderID,
		lastMessageAt:          lastMessageAt,
		totalMessages:          totalMessages,
		createdAt:              createdAt,
		updatedAt:              updatedAt,
		closedAt:               closedAt,
		uncommittedEvents:      make([]event.DomainEvent, 0),
	}
}
