package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/uuid"
	"github.com/atiendo/atiendo/internal/domain/visitor"
)

// visitorDocument is the MongoDB representation of a visitor.
type visitorDocument struct {
	VisitorID   string    `bson:"visitor_id"`
	TenantID    string    `bson:"tenant_id"`
	SiteID      string    `bson:"site_id"`
	Fingerprint string    `bson:"fingerprint"`
	State       string    `bson:"state"`
	Name        string    `bson:"name,omitempty"`
	Email       string    `bson:"email,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
	LastSeenAt  time.Time `bson:"last_seen_at"`
}

// MongoVisitorRepository implements visitor.Repository.
type MongoVisitorRepository struct {
	collection *mongo.Collection
}

// NewMongoVisitorRepository creates a new MongoDB visitor repository.
func NewMongoVisitorRepository(collection *mongo.Collection) *MongoVisitorRepository {
	return &MongoVisitorRepository{collection: collection}
}

// FindByID finds a visitor by ID.
func (r *MongoVisitorRepository) FindByID(ctx context.Context, id uuid.UUID) (*visitor.Visitor, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{"visitor_id": id.String()}
	var doc visitorDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, HandleMongoError(err, "visitor")
	}

	return documentToVisitor(&doc)
}

// FindByFingerprint finds a visitor by fingerprint scoped to a site.
func (r *MongoVisitorRepository) FindByFingerprint(
	ctx context.Context,
	siteID uuid.UUID,
	fingerprint string,
) (*visitor.Visitor, error) {
	if siteID.IsZero() || fingerprint == "" {
		return nil, errs.ErrInvalidInput
	}

	filter := bson.M{
		"site_id":     siteID.String(),
		"fingerprint": fingerprint,
	}
	var doc visitorDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, HandleMongoError(err, "visitor")
	}

	return documentToVisitor(&doc)
}

// Save persists a visitor (create or update).
func (r *MongoVisitorRepository) Save(ctx context.Context, v *visitor.Visitor) error {
	if v == nil || v.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	doc := visitorToDocument(v)

	filter := bson.M{"visitor_id": v.ID().String()}
	update := bson.M{"$set": doc}
	_, err := r.collection.UpdateOne(ctx, filter, update, UpsertOptions())
	return HandleMongoError(err, "visitor")
}

func visitorToDocument(v *visitor.Visitor) *visitorDocument {
	return &visitorDocument{
		VisitorID:   v.ID().String(),
		TenantID:    v.TenantID().String(),
		SiteID:      v.SiteID().String(),
		Fingerprint: v.Fingerprint(),
		State:       v.State().String(),
		Name:        v.Name(),
		Email:       v.Email(),
		CreatedAt:   v.CreatedAt().UTC(),
		UpdatedAt:   v.UpdatedAt().UTC(),
		LastSeenAt:  v.LastSeenAt().UTC(),
	}
}

func documentToVisitor(doc *visitorDocument) (*visitor.Visitor, error) {
	state, err := visitor.NewState(doc.State)
	if err != nil {
		return nil, err
	}

	return visitor.ReconstructVisitor(
		uuid.UUID(doc.VisitorID),
		uuid.UUID(doc.TenantID),
		uuid.UUID(doc.SiteID),
		doc.Fingerprint,
		state,
		doc.Name,
		doc.Email,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.LastSeenAt,
	), nil
}

var _ visitor.Repository = (*MongoVisitorRepository)(nil)
