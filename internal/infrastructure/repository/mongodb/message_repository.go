package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// messageDocument is the MongoDB representation of a message.
type messageDocument struct {
	MessageID       string              `bson:"message_id"`
	ChatID          string              `bson:"chat_id"`
	SenderID        string              `bson:"sender_id"`
	Content         string              `bson:"content"`
	MessageType     string              `bson:"message_type"`
	SystemData      *message.SystemData `bson:"system_data,omitempty"`
	Attachment      *message.Attachment `bson:"attachment,omitempty"`
	IsInternal      bool                `bson:"is_internal"`
	IsFirstResponse bool                `bson:"is_first_response"`
	IsAI            bool                `bson:"is_ai"`
	AIMetadata      *message.AIMetadata `bson:"ai_metadata,omitempty"`
	CreatedAt       time.Time           `bson:"created_at"`
}

// MongoMessageRepository implements message.Repository.
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoDB message repository.
func NewMongoMessageRepository(collection *mongo.Collection) *MongoMessageRepository {
	return &MongoMessageRepository{collection: collection}
}

// FindByID finds a message by ID.
func (r *MongoMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*message.Message, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{"message_id": id.String()}
	var doc messageDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, HandleMongoError(err, "message")
	}

	return documentToMessage(&doc), nil
}

// FindByChatID lists messages of a chat with pagination, newest first.
func (r *MongoMessageRepository) FindByChatID(
	ctx context.Context,
	chatID uuid.UUID,
	pagination message.Pagination,
) ([]*message.Message, error) {
	if chatID.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	limit := ClampLimit(pagination.Limit)
	offset := pagination.Offset
	if offset < 0 {
		offset = 0
	}

	filter := bson.M{"chat_id": chatID.String()}
	opts := FindWithPaginationDesc(offset, limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, HandleMongoError(err, "messages")
	}
	defer cursor.Close(ctx)

	messages := make([]*message.Message, 0)
	for cursor.Next(ctx) {
		var doc messageDocument
		if decodeErr := cursor.Decode(&doc); decodeErr != nil {
			continue // skip malformed documents
		}
		messages = append(messages, documentToMessage(&doc))
	}

	if err = cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return messages, nil
}

// CountByChatID returns the authoritative message count for a chat.
func (r *MongoMessageRepository) CountByChatID(ctx context.Context, chatID uuid.UUID) (int, error) {
	if chatID.IsZero() {
		return 0, errs.ErrInvalidInput
	}

	filter := bson.M{"chat_id": chatID.String()}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, HandleMongoError(err, "messages")
	}

	return int(count), nil
}

// Save inserts a message. Messages are append-only, so this is a plain
// insert and a repeated message ID maps to errs.ErrAlreadyExists.
func (r *MongoMessageRepository) Save(ctx context.Context, m *message.Message) error {
	if m == nil || m.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	_, err := r.collection.InsertOne(ctx, messageToDocument(m))
	return HandleMongoError(err, "message")
}

func messageToDocument(m *message.Message) *messageDocument {
	return &messageDocument{
		MessageID:       m.ID().String(),
		ChatID:          m.ChatID().String(),
		SenderID:        m.SenderID().String(),
		Content:         m.Content(),
		MessageType:     string(m.MessageType()),
		SystemData:      m.SystemData(),
		Attachment:      m.Attachment(),
		IsInternal:      m.IsInternal(),
		IsFirstResponse: m.IsFirstResponse(),
		IsAI:            m.IsAI(),
		AIMetadata:      m.AIMetadata(),
		CreatedAt:       m.CreatedAt().UTC(),
	}
}

func documentToMessage(doc *messageDocument) *message.Message {
	return message.ReconstructMessage(
		uuid.UUID(doc.MessageID),
		uuid.UUID(doc.ChatID),
		uuid.UUID(doc.SenderID),
		doc.Content,
		message.Type(doc.MessageType),
		doc.SystemData,
		doc.Attachment,
		doc.IsInternal,
		doc.IsFirstResponse,
		doc.IsAI,
		doc.AIMetadata,
		doc.CreatedAt,
	)
}

var _ message.Repository = (*MongoMessageRepository)(nil)
