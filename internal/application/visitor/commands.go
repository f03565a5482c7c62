// Package visitor contains the visitor tracking use cases: upserting by
// browser fingerprint, identification and lifecycle transitions.
package visitor

import (
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// TrackVisitorCommand registers activity for a fingerprint. The visitor
// is created on first sight and touched on every subsequent one.
type TrackVisitorCommand struct {
	TenantID    uuid.UUID
	SiteID      uuid.UUID
	Fingerprint string
}

// CommandName returns the command name
func (c TrackVisitorCommand) CommandName() string { return "TrackVisitor" }

// IdentifyVisitorCommand attaches name and email to a visitor.
type IdentifyVisitorCommand struct {
	VisitorID uuid.UUID
	Name      string
	Email     string
}

// CommandName returns the command name
func (c IdentifyVisitorCommand) CommandName() string { return "IdentifyVisitor" }

// TransitionStateCommand moves a visitor to another lifecycle state.
type TransitionStateCommand struct {
	VisitorID uuid.UUID
	NextState string
}

// CommandName returns the command name
func (c TransitionStateCommand) CommandName() string { return "TransitionState" }
