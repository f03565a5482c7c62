// Package outbox provides the MongoDB-backed transactional outbox.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/atiendo/atiendo/internal/application/appcore"
	"github.com/atiendo/atiendo/internal/domain/event"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

const defaultPollBatchSize = 100

type outboxDocument struct {
	ID            string     `bson:"_id"`
	EventID       string     `bson:"event_id"`
	EventType     string     `bson:"event_type"`
	AggregateID   string     `bson:"aggregate_id"`
	AggregateType string     `bson:"aggregate_type"`
	Payload       []byte     `bson:"payload"`
	CreatedAt     time.Time  `bson:"created_at"`
	Published     bool       `bson:"published"`
	PublishedAt   *time.Time `bson:"published_at,omitempty"`
	RetryCount    int        `bson:"retry_count"`
	LastError     string     `bson:"last_error,omitempty"`
}

// MongoOutbox implements appcore.Outbox using MongoDB.
type MongoOutbox struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// Option configures MongoOutbox.
type Option func(*MongoOutbox)

// WithLogger sets the logger for the outbox.
func WithLogger(logger *slog.Logger) Option {
	return func(o *MongoOutbox) {
		o.logger = logger
	}
}

// NewMongoOutbox creates a new MongoDB-backed outbox.
func NewMongoOutbox(collection *mongo.Collection, opts ...Option) *MongoOutbox {
	o := &MongoOutbox{
		collection: collection,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Add inserts a single event into the outbox.
func (o *MongoOutbox) Add(ctx context.Context, evt event.DomainEvent) error {
	if evt == nil {
		return errors.New("event cannot be nil")
	}

	doc, err := eventToDocument(evt)
	if err != nil {
		return fmt.Errorf("failed to convert event to outbox document: %w", err)
	}

	if _, err = o.collection.InsertOne(ctx, doc); err != nil {
		o.logger.ErrorContext(ctx, "failed to insert event into outbox",
			slog.String("event_type", evt.EventType()),
			slog.String("aggregate_id", evt.AggregateID()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to insert event into outbox: %w", err)
	}

	o.logger.DebugContext(ctx, "event added to outbox",
		slog.String("entry_id", doc.ID),
		slog.String("event_type", evt.EventType()),
	)

	return nil
}

// AddBatch inserts the events of one commit together.
func (o *MongoOutbox) AddBatch(ctx context.Context, events []event.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]any, len(events))
	for i, evt := range events {
		if evt == nil {
			return fmt.Errorf("event at index %d cannot be nil", i)
		}
		doc, err := eventToDocument(evt)
		if err != nil {
			return fmt.Errorf("failed to convert event at index %d: %w", i, err)
		}
		docs[i] = doc
	}

	if _, err := o.collection.InsertMany(ctx, docs); err != nil {
		o.logger.ErrorContext(ctx, "failed to insert events batch into outbox",
			slog.Int("count", len(events)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to insert events batch into outbox: %w", err)
	}

	return nil
}

// Poll returns unpublished entries oldest first.
func (o *MongoOutbox) Poll(ctx context.Context, batchSize int) ([]appcore.OutboxEntry, error) {
	if batchSize <= 0 {
		batchSize = defaultPollBatchSize
	}

	filter := bson.M{"published": false}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(batchSize))

	cursor, err := o.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to poll outbox: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []appcore.OutboxEntry
	for cursor.Next(ctx) {
		var doc outboxDocument
		if decodeErr := cursor.Decode(&doc); decodeErr != nil {
			o.logger.WarnContext(ctx, "failed to decode outbox entry",
				slog.String("error", decodeErr.Error()),
			)
			continue
		}
		entries = append(entries, documentToEntry(&doc))
	}

	if cursorErr := cursor.Err(); cursorErr != nil {
		return nil, fmt.Errorf("cursor error while polling outbox: %w", cursorErr)
	}

	return entries, nil
}

// MarkPublished marks an entry as delivered to the bus.
func (o *MongoOutbox) MarkPublished(ctx context.Context, entryID string) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": entryID}
	update := bson.M{"$set": bson.M{"published": true, "published_at": now}}

	result, err := o.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry as published: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("outbox entry not found: %s", entryID)
	}

	return nil
}

// MarkFailed records a delivery failure for retry accounting.
func (o *MongoOutbox) MarkFailed(ctx context.Context, entryID string, publishErr error) error {
	errMsg := ""
	if publishErr != nil {
		errMsg = publishErr.Error()
	}

	filter := bson.M{"_id": entryID}
	update := bson.M{
		"$inc": bson.M{"retry_count": 1},
		"$set": bson.M{"last_error": errMsg},
	}

	result, err := o.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry as failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("outbox entry not found: %s", entryID)
	}

	return nil
}

// Cleanup deletes published entries older than the given age.
func (o *MongoOutbox) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	filter := bson.M{
		"published":    true,
		"published_at": bson.M{"$lt": cutoff},
	}

	result, err := o.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup outbox: %w", err)
	}

	if result.DeletedCount > 0 {
		o.logger.InfoContext(ctx, "cleaned up published outbox entries",
			slog.Int64("deleted", result.DeletedCount),
			slog.Duration("older_than", olderThan),
		)
	}

	return result.DeletedCount, nil
}

// Stats returns the unpublished count and the oldest unpublished entry
// creation time.
func (o *MongoOutbox) Stats(ctx context.Context) (int64, time.Time, error) {
	filter := bson.M{"published": false}

	count, err := o.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to count unpublished entries: %w", err)
	}
	if count == 0 {
		return 0, time.Time{}, nil
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	var doc outboxDocument
	if err = o.collection.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return count, time.Time{}, nil
		}
		return count, time.Time{}, fmt.Errorf("failed to find oldest entry: %w", err)
	}

	return count, doc.CreatedAt, nil
}

func eventToDocument(evt event.DomainEvent) (*outboxDocument, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &outboxDocument{
		ID:            uuid.NewUUID().String(),
		EventID:       uuid.NewUUID().String(),
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		Published:     false,
		RetryCount:    0,
	}, nil
}

func documentToEntry(doc *outboxDocument) appcore.OutboxEntry {
	return appcore.OutboxEntry{
		ID:            doc.ID,
		EventID:       doc.EventID,
		EventType:     doc.EventType,
		AggregateID:   doc.AggregateID,
		AggregateType: doc.AggregateType,
		Payload:       doc.Payload,
		CreatedAt:     doc.CreatedAt,
		Published:     doc.Published,
		PublishedAt:   doc.PublishedAt,
		RetryCount:    doc.RetryCount,
		LastError:     doc.LastError,
	}
}

var _ appcore.Outbox = (*MongoOutbox)(nil)
