//go:build docker

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/filter"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/paging"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env:        []string{"POSTGRES_PASSWORD=secret", "POSTGRES_DB=marketplace"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	require.NoError(t, resource.Expire(120))

	dsn := fmt.Sprintf("postgres://postgres:secret@%s/marketplace?sslmode=disable", resource.GetHostPort("5432/tcp"))
	ctx := context.Background()

	var db *pgxpool.Pool
	pool.MaxWait = time.Minute
	require.NoError(t, pool.Retry(func() error {
		var err error
		db, err = Connect(ctx, dsn)
		return err
	}))
	t.Cleanup(db.Close)
	require.NoError(t, Migrate(ctx, dsn))
	return db
}

func TestStore_PageAndRelations(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	_, err := db.Exec(ctx, `
		INSERT INTO categories (id, slug, name) VALUES ('cat-1', 'boosting', 'Boosting');
		INSERT INTO languages (id, name) VALUES ('en', 'English'), ('de', 'German');
		INSERT INTO users (id, username, gender, birthdate) VALUES
			('u1', 'ana', 'female', '1995-04-01'), ('u2', 'bo', 'male', '1980-01-01');
		INSERT INTO user_languages (user_id, language_id) VALUES ('u1', 'en'), ('u1', 'de'), ('u2', 'de');
	`)
	require.NoError(t, err)

	listings := NewListingRepository(db, logger.NewNop())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, user := range []string{"u1", "u2"} {
		require.NoError(t, listings.Create(ctx, &domain.Listing{
			ID: fmt.Sprintf("l%d", i), UserID: user, CategoryID: "cat-1", Price: float64(5 * (i + 1)),
			Platforms: []domain.Platform{{ID: "pc", Name: "PC"}},
			Status:    true, CreatedAt: base.Add(time.Duration(i) * time.Hour), UpdatedAt: base,
		}))
	}
	_, err = db.Exec(ctx, `INSERT INTO listing_images (id, listing_id, url) VALUES ('i1', 'l0', 'https://cdn/1.png')`)
	require.NoError(t, err)

	dup := &domain.Listing{ID: "l9", UserID: "u1", CategoryID: "cat-1", CreatedAt: base, UpdatedAt: base}
	assert.ErrorIs(t, listings.Create(ctx, dup), domain.ErrInvalidArgument)

	exec := paging.NewExecutor(listings, NewCategoryRepository(db), nil)
	page, err := exec.Query(ctx, paging.Request{ScopeKey: "boosting", Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "l1", page.Items[0].ID)
	assert.True(t, page.HasMore)
	assert.Equal(t, []domain.Platform{{ID: "pc", Name: "PC"}}, page.Items[0].Platforms)

	page, err = exec.Query(ctx, paging.Request{ScopeKey: "boosting", Limit: 1, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "l0", page.Items[0].ID)
	assert.False(t, page.HasMore)

	// both sellers speak German; u1 must still appear once
	pred := filter.Predicate{Clauses: []filter.Clause{filter.In{On: filter.FieldLanguage, Values: []string{"de", "en"}}}}
	page, err = exec.Query(ctx, paging.Request{ScopeKey: "boosting", Limit: 10, Predicate: pred})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	pred = filter.Predicate{Clauses: []filter.Clause{filter.In{On: filter.FieldGender, Values: []string{"female"}}}}
	page, err = exec.Query(ctx, paging.Request{ScopeKey: "boosting", Limit: 10, Predicate: pred})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "l0", page.Items[0].ID)

	relations := NewRelationRepository(db)
	imgs, err := relations.ImagesByListingIDs(ctx, []string{"l0", "l1"})
	require.NoError(t, err)
	assert.Len(t, imgs, 1)
	langs, err := relations.LanguagesByUserIDs(ctx, []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Len(t, langs, 3)
	users, err := relations.UsersByIDs(ctx, []string{"u2", "ghost"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bo", users[0].Username)
}
