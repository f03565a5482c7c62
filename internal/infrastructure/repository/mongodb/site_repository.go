package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/uuid"
	"github.com/atiendo/atiendo/internal/middleware"
)

// siteDocument is the MongoDB representation of a site key binding.
type siteDocument struct {
	SiteKey   string    `bson:"site_key"`
	TenantID  string    `bson:"tenant_id"`
	SiteID    string    `bson:"site_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoSiteRepository resolves widget site keys to their tenant and
// site. Implements middleware.SiteResolver.
type MongoSiteRepository struct {
	collection *mongo.Collection
}

// NewMongoSiteRepository creates a new MongoDB site repository.
func NewMongoSiteRepository(collection *mongo.Collection) *MongoSiteRepository {
	return &MongoSiteRepository{collection: collection}
}

// ResolveSite looks up the binding for a site key.
func (r *MongoSiteRepository) ResolveSite(
	ctx context.Context,
	siteKey string,
) (*middleware.SiteBinding, error) {
	if siteKey == "" {
		return nil, middleware.ErrSiteNotFound
	}

	filter := bson.M{"site_key": siteKey}
	var doc siteDocument
	if findErr := r.collection.FindOne(ctx, filter).Decode(&doc); findErr != nil {
		mappedErr := HandleMongoError(findErr, "site")
		if errors.Is(mappedErr, errs.ErrNotFound) {
			return nil, middleware.ErrSiteNotFound
		}
		return nil, mappedErr
	}

	return &middleware.SiteBinding{
		TenantID: uuid.UUID(doc.TenantID),
		SiteID:   uuid.UUID(doc.SiteID),
	}, nil
}

// Register stores a site key binding. Used by provisioning and tests.
func (r *MongoSiteRepository) Register(
	ctx context.Context,
	siteKey string,
	tenantID, siteID uuid.UUID,
) error {
	if siteKey == "" || tenantID.IsZero() || siteID.IsZero() {
		return errs.ErrInvalidInput
	}

	doc := &siteDocument{
		SiteKey:   siteKey,
		TenantID:  tenantID.String(),
		SiteID:    siteID.String(),
		CreatedAt: time.Now().UTC(),
	}

	filter := bson.M{"site_key": siteKey}
	update := bson.M{"$set": doc}
	_, err := r.collection.UpdateOne(ctx, filter, update, UpsertOptions())
	return HandleMongoError(err, "site")
}

var _ middleware.SiteResolver = (*MongoSiteRepository)(nil)
