package mongodb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/uuid"
	"github.com/atiendo/atiendo/internal/domain/visitor"
	inframongo "github.com/atiendo/atiendo/internal/infrastructure/mongodb"
	"github.com/atiendo/atiendo/internal/infrastructure/repository/mongodb"
	"github.com/atiendo/atiendo/tests/testutil"
)

func setupVisitorRepo(t *testing.T) *mongodb.MongoVisitorRepository {
	t.Helper()

	db := testutil.SetupTestMongoDB(t)
	require.NoError(t, inframongo.CreateAllIndexes(context.Background(), db))

	return mongodb.NewMongoVisitorRepository(db.Collection(inframongo.CollectionVisitors))
}

func TestMongoVisitorRepository_SaveLoadRoundTrip(t *testing.T) {
	repo := setupVisitorRepo(t)
	ctx := context.Background()

	v, err := visitor.NewVisitor(uuid.NewUUID(), uuid.NewUUID(), "fp-abc123")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, v))

	loaded, err := repo.FindByID(ctx, v.ID())
	require.NoError(t, err)
	assert.Equal(t, v.ID(), loaded.ID())
	assert.Equal(t, v.TenantID(), loaded.TenantID())
	assert.Equal(t, v.SiteID(), loaded.SiteID())
	assert.Equal(t, "fp-abc123", loaded.Fingerprint())
	assert.Equal(t, visitor.StateAnonymous, loaded.State())
}

func TestMongoVisitorRepository_FindByFingerprint(t *testing.T) {
	repo := setupVisitorRepo(t)
	ctx := context.Background()

	tenantID := uuid.NewUUID()
	siteA := uuid.NewUUID()
	siteB := uuid.NewUUID()

	onA, err := visitor.NewVisitor(tenantID, siteA, "fp-shared")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, onA))

	// Same fingerprint on a different site is a different visitor.
	onB, err := visitor.NewVisitor(tenantID, siteB, "fp-shared")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, onB))

	found, err := repo.FindByFingerprint(ctx, siteA, "fp-shared")
	require.NoError(t, err)
	assert.Equal(t, onA.ID(), found.ID())

	found, err = repo.FindByFingerprint(ctx, siteB, "fp-shared")
	require.NoError(t, err)
	assert.Equal(t, onB.ID(), found.ID())

	_, err = repo.FindByFingerprint(ctx, siteA, "fp-missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMongoVisitorRepository_SaveUpsertsByID(t *testing.T) {
	repo := setupVisitorRepo(t)
	ctx := context.Background()

	v, err := visitor.NewVisitor(uuid.NewUUID(), uuid.NewUUID(), "fp-upsert")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, v))

	require.NoError(t, v.Identify("Carlos", "carlos@example.com"))
	require.NoError(t, repo.Save(ctx, v))

	loaded, err := repo.FindByID(ctx, v.ID())
	require.NoError(t, err)
	assert.Equal(t, visitor.StateIdentified, loaded.State())
	assert.Equal(t, "Carlos", loaded.Name())
	assert.Equal(t, "carlos@example.com", loaded.Email())
}
