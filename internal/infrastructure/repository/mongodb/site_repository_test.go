package mongodb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atiendo/atiendo/internal/domain/uuid"
	inframongo "github.com/atiendo/atiendo/internal/infrastructure/mongodb"
	"github.com/atiendo/atiendo/internal/infrastructure/repository/mongodb"
	"github.com/atiendo/atiendo/internal/middleware"
	"github.com/atiendo/atiendo/tests/testutil"
)

func setupSiteRepo(t *testing.T) *mongodb.MongoSiteRepository {
	t.Helper()

	db := testutil.SetupTestMongoDB(t)
	require.NoError(t, inframongo.CreateAllIndexes(context.Background(), db))

	return mongodb.NewMongoSiteRepository(db.Collection(inframongo.CollectionSites))
}

func TestMongoSiteRepository_RegisterAndResolve(t *testing.T) {
	repo := setupSiteRepo(t)
	ctx := context.Background()

	tenantID := uuid.NewUUID()
	siteID := uuid.NewUUID()
	require.NoError(t, repo.Register(ctx, "pk_live_acme", tenantID, siteID))

	binding, err := repo.ResolveSite(ctx, "pk_live_acme")
	require.NoError(t, err)
	assert.Equal(t, tenantID, binding.TenantID)
	assert.Equal(t, siteID, binding.SiteID)
}

func TestMongoSiteRepository_ResolveUnknownKey(t *testing.T) {
	repo := setupSiteRepo(t)

	_, err := repo.ResolveSite(context.Background(), "pk_live_nobody")
	require.ErrorIs(t, err, middleware.ErrSiteNotFound)
}

func TestMongoSiteRepository_RegisterIsIdempotent(t *testing.T) {
	repo := setupSiteRepo(t)
	ctx := context.Background()

	tenantID := uuid.NewUUID()
	firstSite := uuid.NewUUID()
	secondSite := uuid.NewUUID()

	require.NoError(t, repo.Register(ctx, "pk_live_acme", tenantID, firstSite))
	require.NoError(t, repo.Register(ctx, "pk_live_acme", tenantID, secondSite))

	binding, err := repo.ResolveSite(ctx, "pk_live_acme")
	require.NoError(t, err)
	assert.Equal(t, secondSite, binding.SiteID, "re-registering a key rebinds it")
}
