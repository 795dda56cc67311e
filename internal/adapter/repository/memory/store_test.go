package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/filter"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/paging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, l := range []domain.Listing{
		{ID: "a", UserID: "u1", CategoryID: "c2", Price: 5, CreatedAt: base},
		{ID: "b", UserID: "u1", CategoryID: "c1", Price: 50, CreatedAt: base.Add(time.Minute)},
		{ID: "c", UserID: "u2", CategoryID: "c1", Price: 8, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "d", UserID: "u1", CategoryID: "c1", Price: 9, CreatedAt: base.Add(3 * time.Minute)},
	} {
		require.NoError(t, s.Create(context.Background(), &l))
	}
	s.PutUser(domain.User{ID: "u1", Gender: "female"})
	s.PutUser(domain.User{ID: "u2", Gender: "male"})
	s.PutLanguage(domain.UserLanguage{UserID: "u2", LanguageID: "fr"})
	return s
}

func ids(listings []domain.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func TestQueryPage_ScopeOrderAndLimit(t *testing.T) {
	s := seeded(t)

	got, err := s.QueryPage(context.Background(), paging.Query{ScopeID: "c1", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b"}, ids(got))

	got, err = s.QueryPage(context.Background(), paging.Query{ScopeID: "c1", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c"}, ids(got))
}

func TestQueryPage_CursorAndPredicate(t *testing.T) {
	s := seeded(t)
	d, err := s.FindByID(context.Background(), "d")
	require.NoError(t, err)
	after := paging.CursorOf(*d)

	got, err := s.QueryPage(context.Background(), paging.Query{ScopeID: "c1", After: &after, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids(got))

	got, err = s.QueryPage(context.Background(), paging.Query{
		ScopeID: "c1",
		Limit:   10,
		Predicate: filter.Predicate{Clauses: []filter.Clause{
			filter.In{On: filter.FieldGender, Values: []string{"female"}},
			filter.NumberBetween{On: filter.FieldPrice, Min: 0, Max: 10},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, ids(got))

	got, err = s.QueryPage(context.Background(), paging.Query{
		ScopeID:   "c1",
		Limit:     10,
		Predicate: filter.Predicate{Clauses: []filter.Clause{filter.In{On: filter.FieldLanguage, Values: []string{"fr"}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(got))
}

func TestQueryPage_CancelledContext(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.QueryPage(ctx, paging.Query{ScopeID: "c1", Limit: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindByUserID_OrderedByCategory(t *testing.T) {
	s := seeded(t)
	got, err := s.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"d", "b", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestUpdateAndDelete_Missing(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.Update(context.Background(), &domain.Listing{ID: "x"}), domain.ErrListingNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), "x"), domain.ErrListingNotFound)
	_, err := s.Categories().FindBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestRelations_CountCallsAndFilterByKey(t *testing.T) {
	s := seeded(t)
	s.PutImage(domain.ListingImage{ID: "i1", ListingID: "a"})
	s.PutImage(domain.ListingImage{ID: "i2", ListingID: "b"})

	imgs, err := s.ImagesByListingIDs(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, "i1", imgs[0].ID)

	users, err := s.UsersByIDs(context.Background(), []string{"u2", "ghost"})
	require.NoError(t, err)
	require.Len(t, users, 1)

	assert.Equal(t, 1, s.RelationCalls("images"))
	assert.Equal(t, 1, s.RelationCalls("sellers"))
	assert.Equal(t, 0, s.RelationCalls("languages"))
}
