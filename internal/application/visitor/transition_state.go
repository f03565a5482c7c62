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

// TransitionStateUseCase moves a visitor through its lifecycle.
type TransitionStateUseCase struct {
	visitorRepo domainvisitor.Repository
	logger      *slog.Logger
}

// NewTransitionStateUseCase creates a new TransitionStateUseCase.
func NewTransitionStateUseCase(
	visitorRepo domainvisitor.Repository,
	logger *slog.Logger,
) *TransitionStateUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransitionStateUseCase{visitorRepo: visitorRepo, logger: logger}
}

// Execute applies the transition if the adjacency rules allow it.
func (uc *TransitionStateUseCase) Execute(
	ctx context.Context,
	cmd TransitionStateCommand,
) (*domainvisitor.Visitor, error) {
	if err := appcore.ValidateUUID("visitorID", cmd.VisitorID); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	nextState, err := domainvisitor.NewState(cmd.NextState)
	if err != nil {
		return nil, ErrUnknownState
	}

	v, err := uc.visitorRepo.FindByID(ctx, cmd.VisitorID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, ErrVisitorNotFound
		}
		return nil, appcore.NewPersistenceError("load visitor", err)
	}

	previous := v.State()
	if transitionErr := v.TransitionTo(nextState); transitionErr != nil {
		return nil, ErrInvalidTransition
	}

	if saveErr := uc.visitorRepo.Save(ctx, v); saveErr != nil {
		return nil, appcore.NewPersistenceError("save visitor", saveErr)
	}

	uc.logger.DebugContext(ctx, "visitor state changed",
		slog.String("visitor_id", v.ID().String()),
		slog.String("from", previous.String()),
		slog.String("to", nextState.String()),
	)

	return v, nil
}
