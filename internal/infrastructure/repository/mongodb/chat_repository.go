package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// chatDocument is the MongoDB representation of a chat.
type chatDocument struct {
	ChatID                 string           `bson:"chat_id"`
	VisitorID              string           `bson:"visitor_id"`
	VisitorInfo            chat.VisitorInfo `bson:"visitor_info"`
	AvailableCommercialIDs []string         `bson:"available_commercial_ids,omitempty"`
	Priority               string           `bson:"priority"`
	Metadata               chat.Metadata    `bson:"metadata"`
	Status                 string           `bson:"status"`
	LastMessageContent     string           `bson:"last_message_content,omitempty"`
	LastMessageSenderID    string           `bson:"last_message_sender_id,omitempty"`
	LastMessageAt          *time.Time       `bson:"last_message_at,omitempty"`
	TotalMessages          int              `bson:"total_messages"`
	CreatedAt              time.Time        `bson:"created_at"`
	UpdatedAt              time.Time        `bson:"updated_at"`
	ClosedAt               *time.Time       `bson:"closed_at,omitempty"`
}

// MongoChatRepository implements chat.Repository.
type MongoChatRepository struct {
	collection *mongo.Collection
}

// NewMongoChatRepository creates a new MongoDB chat repository.
func NewMongoChatRepository(collection *mongo.Collection) *MongoChatRepository {
	return &MongoChatRepository{collection: collection}
}

// FindByID finds a chat by ID.
func (r *MongoChatRepository) FindByID(ctx context.Context, id uuid.UUID) (*chat.Chat, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{"chat_id": id.String()}
	var doc chatDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, HandleMongoError(err, "chat")
	}

	return documentToChat(&doc), nil
}

// Save persists a chat. The update filter pins created_at next to the
// ID: writing a different chat under an existing ID falls through to
// the upsert insert and trips the unique chat_id index, which surfaces
// as errs.ErrAlreadyExists. That is what makes creation idempotent for
// the caller.
func (r *MongoChatRepository) Save(ctx context.Context, c *chat.Chat) error {
	if c == nil || c.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	doc := chatToDocument(c)

	filter := bson.M{
		"chat_id":    c.ID().String(),
		"created_at": doc.CreatedAt,
	}
	update := bson.M{"$set": doc}
	_, err := r.collection.UpdateOne(ctx, filter, update, UpsertOptions())
	return HandleMongoError(err, "chat")
}

// CountPendingCreatedBefore counts pending chats created strictly
// before the given time, scoped to a department when one is set.
func (r *MongoChatRepository) CountPendingCreatedBefore(
	ctx context.Context,
	before time.Time,
	department string,
) (int, error) {
	filter := bson.M{
		"status":     string(chat.StatusPending),
		"created_at": bson.M{"$lt": before},
	}
	if department != "" {
		filter["metadata.department"] = department
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending chats: %w", err)
	}

	return int(count), nil
}

func chatToDocument(c *chat.Chat) *chatDocument {
	commercialIDs := make([]string, 0, len(c.AvailableCommercialIDs()))
	for _, id := range c.AvailableCommercialIDs() {
		commercialIDs = append(commercialIDs, id.String())
	}

	return &chatDocument{
		ChatID:                 c.ID().String(),
		VisitorID:              c.VisitorID().String(),
		VisitorInfo:            c.VisitorInfo(),
		AvailableCommercialIDs: commercialIDs,
		Priority:               c.Priority(),
		Metadata:               c.Metadata(),
		Status:                 string(c.Status()),
		LastMessageContent:     c.LastMessageContent(),
		LastMessageSenderID:    c.LastMessageSenderID().String(),
		LastMessageAt:          c.LastMessageAt(),
		TotalMessages:          c.TotalMessages(),
		CreatedAt:              c.CreatedAt().UTC(),
		UpdatedAt:              c.UpdatedAt().UTC(),
		ClosedAt:               c.ClosedAt(),
	}
}

func documentToChat(doc *chatDocument) *chat.Chat {
	commercialIDs := make([]uuid.UUID, 0, len(doc.AvailableCommercialIDs))
	for _, id := range doc.AvailableCommercialIDs {
		commercialIDs = append(commercialIDs, uuid.UUID(id))
	}

	return chat.ReconstructChat(
		uuid.UUID(doc.ChatID),
		uuid.UUID(doc.VisitorID),
		doc.VisitorInfo,
		commercialIDs,
		doc.Priority,
		doc.Metadata,
		chat.Status(doc.Status),
		doc.LastMessageContent,
		uuid.UUID(doc.LastMessageSenderID),
		doc.LastMessageAt,
		doc.TotalMessages,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.ClosedAt,
	)
}

var _ chat.Repository = (*MongoChatRepository)(nil)
