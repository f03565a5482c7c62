package visitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atiendo/atiendo/internal/application/appcore"
	"github.com/atiendo/atiendo/internal/domain/errs"
	domainvisitor "github.com/atiendo/atiendo/internal/domain/visitor"
)

// TrackVisitorResult reports the visitor plus whether this call created it.
type TrackVisitorResult struct {
	Visitor *domainvisitor.Visitor
	Created bool
}

// TrackVisitorUseCase upserts a visitor by site and fingerprint. First
// sight creates an anonymous visitor; later sights refresh last-seen.
type TrackVisitorUseCase struct {
	visitorRepo domainvisitor.Repository
	logger      *slog.Logger
}

// NewTrackVisitorUseCase creates a new TrackVisitorUseCase.
func NewTrackVisitorUseCase(
	visitorRepo domainvisitor.Repository,
	logger *slog.Logger,
) *TrackVisitorUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrackVisitorUseCase{visitorRepo: visitorRepo, logger: logger}
}

// Execute finds or creates the visitor for the fingerprint.
func (uc *TrackVisitorUseCase) Execute(
	ctx context.Context,
	cmd TrackVisitorCommand,
) (TrackVisitorResult, error) {
	if err := appcore.ValidateUUID("tenantID", cmd.TenantID); err != nil {
		return TrackVisitorResult{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := appcore.ValidateUUID("siteID", cmd.SiteID); err != nil {
		return TrackVisitorResult{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := appcore.ValidateRequired("fingerprint", cmd.Fingerprint); err != nil {
		return TrackVisitorResult{}, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := uc.visitorRepo.FindByFingerprint(ctx, cmd.SiteID, cmd.Fingerprint)
	if err == nil {
		existing.Touch()
		if saveErr := uc.visitorRepo.Save(ctx, existing); saveErr != nil {
			return TrackVisitorResult{}, appcore.NewPersistenceError("touch visitor", saveErr)
		}
		return TrackVisitorResult{Visitor: existing}, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return TrackVisitorResult{}, appcore.NewPersistenceError("find visitor", err)
	}

	created, err := domainvisitor.NewVisitor(cmd.TenantID, cmd.SiteID, cmd.Fingerprint)
	if err != nil {
		return TrackVisitorResult{}, fmt.Errorf("validation failed: %w", err)
	}
	if saveErr := uc.visitorRepo.Save(ctx, created); saveErr != nil {
		return TrackVisitorResult{}, appcore.NewPersistenceError("create visitor", saveErr)
	}

	uc.logger.DebugContext(ctx, "visitor created",
		slog.String("visitor_id", created.ID().String()),
		slog.String("site_id", cmd.SiteID.String()),
	)

	return TrackVisitorResult{Visitor: created, Created: true}, nil
}
