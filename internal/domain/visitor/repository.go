package visitor

import (
	"context"

	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// Repository defines the visitor persistence contract.
type Repository interface {
	// FindByID finds a visitor by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Visitor, error)

	// FindByFingerprint finds a visitor by fingerprint scoped to a site
	FindByFingerprint(ctx context.Context, siteID uuid.UUID, fingerprint string) (*Visitor, error)

	// Save persists a visitor (create or update)
	Save(ctx context.Context, v *Visitor) error
}
