// Package mongodb provides MongoDB infrastructure components including
// index management.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names as constants for consistency.
const (
	CollectionChats    = "chats"
	CollectionMessages = "messages"
	CollectionVisitors = "visitors"
	CollectionSites    = "sites"
	CollectionOutbox   = "outbox"
)

// IndexDefinition describes a MongoDB index to be created.
type IndexDefinition struct {
	Collection string
	Keys       bson.D
	Options    *options.IndexOptionsBuilder
}

// CreateAllIndexes creates all necessary indexes for the application.
// This function is idempotent - calling it multiple times is safe.
func CreateAllIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idx := range GetAllIndexDefinitions() {
		coll := db.Collection(idx.Collection)
		model := mongo.IndexModel{
			Keys:    idx.Keys,
			Options: idx.Options,
		}

		if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index on collection %s: %w", idx.Collection, err)
		}
	}

	return nil
}

// GetAllIndexDefinitions returns all index definitions for all collections.
func GetAllIndexDefinitions() []IndexDefinition {
	var indexes []IndexDefinition

	indexes = append(indexes, GetChatIndexes()...)
	indexes = append(indexes, GetMessageIndexes()...)
	indexes = append(indexes, GetVisitorIndexes()...)
	indexes = append(indexes, GetSiteIndexes()...)
	indexes = append(indexes, GetOutboxIndexes()...)

	return indexes
}

// GetChatIndexes returns index definitions for the chats collection.
func GetChatIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// The unique chat_id index is what turns a duplicate
			// create into errs.ErrAlreadyExists.
			Collection: CollectionChats,
			Keys:       bson.D{{Key: "chat_id", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_chats_chat_id_unique"),
		},
		{
			// Serves the waiting-room position query.
			Collection: CollectionChats,
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "metadata.department", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_chats_status_department_created"),
		},
		{
			Collection: CollectionChats,
			Keys:       bson.D{{Key: "visitor_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options:    options.Index().SetName("idx_chats_visitor_created"),
		},
	}
}

// GetMessageIndexes returns index definitions for the messages collection.
func GetMessageIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionMessages,
			Keys:       bson.D{{Key: "message_id", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_messages_message_id_unique"),
		},
		{
			// Serves chat timeline listing and the authoritative count.
			Collection: CollectionMessages,
			Keys:       bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options:    options.Index().SetName("idx_messages_chat_created"),
		},
	}
}

// GetVisitorIndexes returns index definitions for the visitors collection.
func GetVisitorIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionVisitors,
			Keys:       bson.D{{Key: "visitor_id", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_visitors_visitor_id_unique"),
		},
		{
			// One visitor per browser fingerprint per site.
			Collection: CollectionVisitors,
			Keys:       bson.D{{Key: "site_id", Value: 1}, {Key: "fingerprint", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_visitors_site_fingerprint_unique"),
		},
		{
			Collection: CollectionVisitors,
			Keys:       bson.D{{Key: "tenant_id", Value: 1}, {Key: "last_seen_at", Value: -1}},
			Options:    options.Index().SetName("idx_visitors_tenant_last_seen"),
		},
	}
}

// GetSiteIndexes returns index definitions for the sites collection.
func GetSiteIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// Every widget request resolves its site key through this.
			Collection: CollectionSites,
			Keys:       bson.D{{Key: "site_key", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_sites_site_key_unique"),
		},
	}
}

// GetOutboxIndexes returns index definitions for the outbox collection.
func GetOutboxIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// The relay polls unpublished entries in insertion order.
			Collection: CollectionOutbox,
			Keys:       bson.D{{Key: "published", Value: 1}, {Key: "created_at", Value: 1}},
			Options:    options.Index().SetName("idx_outbox_published_created"),
		},
		{
			Collection: CollectionOutbox,
			Keys:       bson.D{{Key: "event_id", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_outbox_event_id_unique"),
		},
	}
}
