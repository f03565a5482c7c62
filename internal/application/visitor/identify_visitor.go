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

// IdentifyVisitorUseCase attaches contact details to a visitor, moving
// it from anonymous to identified when the adjacency rules allow.
type IdentifyVisitorUseCase struct {
	visitorRepo domainvisitor.Repository
	logger      *slog.Logger
}

// NewIdentifyVisitorUseCase creates a new IdentifyVisitorUseCase.
func NewIdentifyVisitorUseCase(
	visitorRepo domainvisitor.Repository,
	logger *slog.Logger,
) *IdentifyVisitorUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentifyVisitorUseCase{visitorRepo: visitorRepo, logger: logger}
}

// Execute stores the visitor's name and email.
func (uc *IdentifyVisitorUseCase) Execute(
	ctx context.Context,
	cmd IdentifyVisitorCommand,
) (*domainvisitor.Visitor, error) {
	if err := appcore.ValidateUUID("visitorID", cmd.VisitorID); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	v, err := uc.visitorRepo.FindByID(ctx, cmd.VisitorID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, ErrVisitorNotFound
		}
		return nil, appcore.NewPersistenceError("load visitor", err)
	}

	if identifyErr := v.Identify(cmd.Name, cmd.Email); identifyErr != nil {
		if errors.Is(identifyErr, errs.ErrInvalidTransition) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("validation failed: %w", identifyErr)
	}

	if saveErr := uc.visitorRepo.Save(ctx, v); saveErr != nil {
		return nil, appcore.NewPersistenceError("save visitor", saveErr)
	}

	return v, nil
}
