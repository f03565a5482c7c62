package visitor

import (
	"time"

	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// Visitor represents an anonymous-or-identified end user on a tracked site.
// Visitors are never deleted; they are only transitioned to inactive.
type Visitor struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	siteID      uuid.UUID
	fingerprint string
	state       State
	name        string
	email       string
	createdAt   time.Time
	updatedAt   time.Time
	lastSeenAt  time.Time
}

// NewVisitor creates a visitor in the anonymous state. Called on first
// contact with a tracked site.
func NewVisitor(tenantID, siteID uuid.UUID, fingerprint string) (*Visitor, error) {
	if tenantID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	if siteID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	if fingerprint == "" {
		return nil, errs.ErrInvalidInput
	}

	now := time.Now()
	return &Visitor{
		id:          uuid.NewUUID(),
		tenantID:    tenantID,
		siteID:      siteID,
		fingerprint: fingerprint,
		state:       MustState(StateAnonymous),
		createdAt:   now,
		updatedAt:   now,
		lastSeenAt:  now,
	}, nil
}

// TransitionTo moves the visitor to next if the state machine allows it.
func (v *Visitor) TransitionTo(next State) error {
	if !v.state.CanTransitionTo(next) {
		return errs.ErrInvalidTransition
	}
	v.state = next
	v.touch()
	return nil
}

// Identify records the visitor's name and email and moves the state to
// identified when the current state allows it.
func (v *Visitor) Identify(name, email string) error {
	if name == "" && email == "" {
		return errs.ErrInvalidInput
	}

	identified := MustState(StateIdentified)
	if v.state.String() != StateIdentified {
		if !v.state.CanTransitionTo(identified) {
			return errs.ErrInvalidTransition
		}
		v.state = identified
	}
	v.name = name
	v.email = email
	v.touch()
	return nil
}

// Touch updates the last-seen timestamp without changing state.
func (v *Visitor) Touch() {
	v.touch()
}

func (v *Visitor) touch() {
	now := time.Now()
	v.updatedAt = now
	v.lastSeenAt = now
}

// ID returns the visitor ID
func (v *Visitor) ID() uuid.UUID { return v.id }

// TenantID returns the owning tenant ID
func (v *Visitor) TenantID() uuid.UUID { return v.tenantID }

// SiteID returns the tracked site ID
func (v *Visitor) SiteID() uuid.UUID { return v.siteID }

// Fingerprint returns the browser fingerprint
func (v *Visitor) Fingerprint() string { return v.fingerprint }

// State returns the current lifecycle state
func (v *Visitor) State() State { return v.state }

// Name returns the visitor name, empty until identified
func (v *Visitor) Name() string { return v.name }

// Email returns the visitor email, empty until identified
func (v *Visitor) Email() string { return v.email }

// CreatedAt returns the creation time
func (v *Visitor) CreatedAt() time.Time { return v.createdAt }

// UpdatedAt returns the last mutation time
func (v *Visitor) UpdatedAt() time.Time { return v.updatedAt }

// LastSeenAt returns the last activity time
func (v *Visitor) LastSeenAt() time.Time { return v.lastSeenAt }

// ReconstructVisitor rebuilds a visitor from persistence without
// running business validation. Used by repositories for hydration.
func ReconstructVisitor(
	id, tenantID, siteID uuid.UUID,
	fingerprint string,
	state State,
	name, email string,
	createdAt, updatedAt, lastSeenAt time.Time,
) *Visitor {
	return &Visitor{
		id:          id,
		tenantID:    tenantID,
		siteID:      siteID,
		fingerprint: fingerprint,
		state:       state,
		name:        name,
		email:       email,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		lastSeenAt:  lastSeenAt,
	}
}
