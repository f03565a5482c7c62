// Package mongodb implements the domain repositories on MongoDB.
package mongodb

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/atiendo/atiendo/internal/domain/errs"
)

const (
	// DefaultPaginationLimit is applied when a query asks for no limit.
	DefaultPaginationLimit = 50

	// MaxPaginationLimit caps a single page.
	MaxPaginationLimit = 200
)

// HandleMongoError maps a MongoDB error to a domain error:
// mongo.ErrNoDocuments becomes errs.ErrNotFound, a unique constraint
// violation becomes errs.ErrAlreadyExists, anything else is wrapped.
func HandleMongoError(err error, resourceType string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrAlreadyExists
	}

	return fmt.Errorf("failed to operate on %s: %w", resourceType, err)
}

// UpsertOptions returns the standard options for upsert operations.
func UpsertOptions() *options.UpdateOneOptionsBuilder {
	return options.UpdateOne().SetUpsert(true)
}

// FindWithPaginationDesc returns find options sorted by created_at
// descending with skip and limit applied.
func FindWithPaginationDesc(offset, limit int) *options.FindOptionsBuilder {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
}

// ClampLimit applies the default and maximum pagination limits.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPaginationLimit
	}
	if limit > MaxPaginationLimit {
		return MaxPaginationLimit
	}
	return limit
}
