package visitor_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	visitorapp "github.com/atiendo/atiendo/internal/application/visitor"
	"github.com/atiendo/atiendo/internal/domain/errs"
	domainvisitor "github.com/atiendo/atiendo/internal/domain/visitor"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

type fakeVisitorRepo struct {
	mu       sync.Mutex
	visitors map[uuid.UUID]*domainvisitor.Visitor
	saveErr  error
}

func newFakeVisitorRepo() *fakeVisitorRepo {
	return &fakeVisitorRepo{visitors: make(map[uuid.UUID]*domainvisitor.Visitor)}
}

func (r *fakeVisitorRepo) FindByID(_ context.Context, id uuid.UUID) (*domainvisitor.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visitors[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return v, nil
}

func (r *fakeVisitorRepo) FindByFingerprint(
	_ context.Context,
	siteID uuid.UUID,
	fingerprint string,
) (*domainvisitor.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.visitors {
		if v.SiteID() == siteID && v.Fingerprint() == fingerprint {
			return v, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *fakeVisitorRepo) Save(_ context.Context, v *domainvisitor.Visitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.visitors[v.ID()] = v
	return nil
}

func seedVisitor(t *testing.T, repo *fakeVisitorRepo) *domainvisitor.Visitor {
	t.Helper()
	v, err := domainvisitor.NewVisitor(uuid.NewUUID(), uuid.NewUUID(), "fp-abc123")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), v))
	return v
}

func TestTrackVisitor_FirstSightCreates(t *testing.T) {
	repo := newFakeVisitorRepo()
	useCase := visitorapp.NewTrackVisitorUseCase(repo, nil)

	cmd := visitorapp.TrackVisitorCommand{
		TenantID:    uuid.NewUUID(),
		SiteID:      uuid.NewUUID(),
		Fingerprint: "fp-new",
	}

	result, err := useCase.Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, domainvisitor.StateAnonymous, result.Visitor.State().String())
	assert.Len(t, repo.visitors, 1)
}

func TestTrackVisitor_SecondSightTouches(t *testing.T) {
	repo := newFakeVisitorRepo()
	useCase := visitorapp.NewTrackVisitorUseCase(repo, nil)

	cmd := visitorapp.TrackVisitorCommand{
		TenantID:    uuid.NewUUID(),
		SiteID:      uuid.NewUUID(),
		Fingerprint: "fp-repeat",
	}

	first, err := useCase.Execute(context.Background(), cmd)
	require.NoError(t, err)

	second, err := useCase.Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Visitor.ID(), second.Visitor.ID())
	assert.Len(t, repo.visitors, 1)
	assert.False(t, second.Visitor.LastSeenAt().Before(first.Visitor.CreatedAt()))
}

func TestTrackVisitor_SameFingerprintDifferentSite(t *testing.T) {
	repo := newFakeVisitorRepo()
	useCase := visitorapp.NewTrackVisitorUseCase(repo, nil)

	tenantID := uuid.NewUUID()
	_, err := useCase.Execute(context.Background(), visitorapp.TrackVisitorCommand{
		TenantID: tenantID, SiteID: uuid.NewUUID(), Fingerprint: "fp-shared",
	})
	require.NoError(t, err)

	result, err := useCase.Execute(context.Background(), visitorapp.TrackVisitorCommand{
		TenantID: tenantID, SiteID: uuid.NewUUID(), Fingerprint: "fp-shared",
	})
	require.NoError(t, err)
	assert.True(t, result.Created, "fingerprints are scoped per site")
	assert.Len(t, repo.visitors, 2)
}

func TestTrackVisitor_Validation(t *testing.T) {
	useCase := visitorapp.NewTrackVisitorUseCase(newFakeVisitorRepo(), nil)

	_, err := useCase.Execute(context.Background(), visitorapp.TrackVisitorCommand{
		TenantID: uuid.NewUUID(),
		SiteID:   uuid.NewUUID(),
	})
	assert.Error(t, err)
}

func TestTransitionState_Allowed(t *testing.T) {
	repo := newFakeVisitorRepo()
	useCase := visitorapp.NewTransitionStateUseCase(repo, nil)

	v := seedVisitor(t, repo)

	updated, err := useCase.Execute(context.Background(), visitorapp.TransitionStateCommand{
		VisitorID: v.ID(),
		NextState: domainvisitor.StateIdentified,
	})
	require.NoError(t, err)
	assert.Equal(t, domainvisitor.StateIdentified, updated.State().String())
}

func TestTransitionState_Rejected(t *testing.T) {
	repo := newFakeVisitorRepo()
	useCase := visitorapp.NewTransitionStateUseCase(repo, nil)

	v := seedVisitor(t, repo)

	// anonymous cannot go straight to converted
	_, err := useCase.Execute(context.Background(), visitorapp.TransitionStateCommand{
		VisitorID: v.ID(),
		NextState: domainvisitor.StateConverted,
	})
	assert.ErrorIs(t, err, visitorapp.ErrInvalidTransition)
	assert.Equal(t, domainvisitor.StateAnonymous, repo.visitors[v.ID()].State().String())
}

func TestTransitionState_UnknownState(t *testing.T) {
	repo := newFakeVisitorRepo()
	useCase := visitorapp.NewTransitionStateUseCase(repo, nil)

	v := seedVisitor(t, repo)

	_, err := useCase.Execute(context.Background(), visitorapp.TransitionStateCommand{
		VisitorID: v.ID(),
		NextState: "sleeping",
	})
	assert.ErrorIs(t, err, visitorapp.ErrUnknownState)
}

func TestTransitionState_VisitorNotFound(t *testing.T) {
	useCase := visitorapp.NewTransitionStateUseCase(newFakeVisitorRepo(), nil)

	_, err := useCase.Execute(context.Background(), visitorapp.TransitionStateCommand{
		VisitorID: uuid.NewUUID(),
		NextState: domainvisitor.StateIdentified,
	})
	assert.ErrorIs(t, err, visitorapp.ErrVisitorNotFound)
}

func TestIdentifyVisitor_Success(t *testing.T) {
	repo := newFakeVisitorRepo()
	useCase := visitorapp.NewIdentifyVisitorUseCase(repo, nil)

	v := seedVisitor(t, repo)

	updated, err := useCase.Execute(context.Background(), visitorapp.IdentifyVisitorCommand{
		VisitorID: v.ID(),
		Name:      "Marta",
		Email:     "marta@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, domainvisitor.StateIdentified, updated.State().String())
	assert.Equal(t, "Marta", updated.Name())
	assert.Equal(t, "marta@example.com", updated.Email())
}

func TestIdentifyVisitor_FromTerminalStateRejected(t *testing.T) {
	repo := newFakeVisitorRepo()
	useCase := visitorapp.NewIdentifyVisitorUseCase(repo, nil)

	v := seedVisitor(t, repo)
	require.NoError(t, v.TransitionTo(domainvisitor.MustState(domainvisitor.StateInactive)))
	require.NoError(t, repo.Save(context.Background(), v))

	_, err := useCase.Execute(context.Background(), visitorapp.IdentifyVisitorCommand{
		VisitorID: v.ID(),
		Name:      "Marta",
	})
	assert.ErrorIs(t, err, visitorapp.ErrInvalidTransition)
}
