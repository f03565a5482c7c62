package visitor

import (
	"context"
	"log/slog"

	domainvisitor "github.com/atiendo/atiendo/internal/domain/visitor"
)

// Service bundles the visitor use cases behind a single entry point for
// the HTTP layer.
type Service struct {
	track      *TrackVisitorUseCase
	identify   *IdentifyVisitorUseCase
	transition *TransitionStateUseCase
}

// NewService creates a Service wired to the given repository.
func NewService(visitorRepo domainvisitor.Repository, logger *slog.Logger) *Service {
	return &Service{
		track:      NewTrackVisitorUseCase(visitorRepo, logger),
		identify:   NewIdentifyVisitorUseCase(visitorRepo, logger),
		transition: NewTransitionStateUseCase(visitorRepo, logger),
	}
}

// TrackVisitor upserts a visitor by site and fingerprint.
func (s *Service) TrackVisitor(ctx context.Context, cmd TrackVisitorCommand) (TrackVisitorResult, error) {
	return s.track.Execute(ctx, cmd)
}

// IdentifyVisitor attaches name and email to a visitor.
func (s *Service) IdentifyVisitor(ctx context.Context, cmd IdentifyVisitorCommand) (*domainvisitor.Visitor, error) {
	return s.identify.Execute(ctx, cmd)
}

// TransitionState moves a visitor through its lifecycle.
func (s *Service) TransitionState(ctx context.Context, cmd TransitionStateCommand) (*domainvisitor.Visitor, error) {
	return s.transition.Execute(ctx, cmd)
}
