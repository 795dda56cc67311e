package paging_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/memory"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/filter"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/paging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, n int) (*memory.Store, *paging.Executor) {
	t.Helper()
	store := memory.New()
	store.PutCategory(domain.Category{ID: "cat-1", Slug: "boosting", Name: "Boosting"})
	store.PutCategory(domain.Category{ID: "cat-2", Slug: "coaching", Name: "Coaching"})
	for i := 0; i < n; i++ {
		require.NoError(t, store.Create(context.Background(), &domain.Listing{
			ID:         fmt.Sprintf("l-%03d", i),
			UserID:     fmt.Sprintf("u-%03d", i),
			CategoryID: "cat-1",
			Price:      float64(i % 25),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	return store, paging.NewExecutor(store, store.Categories(), nil)
}

func ids(items []domain.Listing) []string {
	out := make([]string, len(items))
	for i, l := range items {
		out[i] = l.ID
	}
	return out
}

func TestExecutor_Query_PagesThroughScopeWithoutOverlap(t *testing.T) {
	_, exec := seed(t, 61)
	ctx := context.Background()

	first, err := exec.Query(ctx, paging.Request{ScopeKey: "boosting", Limit: 50})
	require.NoError(t, err)
	assert.Len(t, first.Items, 50)
	assert.True(t, first.HasMore)
	assert.NotEmpty(t, first.NextCursor)
	assert.Equal(t, "l-060", first.Items[0].ID)
	assert.Equal(t, "l-011", first.Items[49].ID)

	second, err := exec.Query(ctx, paging.Request{ScopeKey: "boosting", Limit: 50, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Len(t, second.Items, 11)
	assert.False(t, second.HasMore)
	assert.Empty(t, second.NextCursor)
	assert.Equal(t, "l-010", second.Items[0].ID)
	assert.Equal(t, "l-000", second.Items[10].ID)

	seen := map[string]bool{}
	for _, id := range append(ids(first.Items), ids(second.Items)...) {
		assert.False(t, seen[id], "listing %s returned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, 61)
}

func TestExecutor_Query_OrdersNewestFirst(t *testing.T) {
	_, exec := seed(t, 20)

	page, err := exec.Query(context.Background(), paging.Request{ScopeKey: "boosting", Limit: 20})
	require.NoError(t, err)
	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i].CreatedAt.After(page.Items[i-1].CreatedAt))
	}
	assert.False(t, page.HasMore)
}

func TestExecutor_Query_ClampsLimit(t *testing.T) {
	_, exec := seed(t, 61)

	page, err := exec.Query(context.Background(), paging.Request{ScopeKey: "boosting", Limit: 500})
	require.NoError(t, err)
	assert.Len(t, page.Items, paging.MaxLimit)
	assert.True(t, page.HasMore)
}

func TestExecutor_Query_ExactFitHasNoMore(t *testing.T) {
	_, exec := seed(t, 10)

	page, err := exec.Query(context.Background(), paging.Request{ScopeKey: "boosting", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)
}

func TestExecutor_Query_RejectsBadInput(t *testing.T) {
	_, exec := seed(t, 1)
	ctx := context.Background()

	tests := []struct {
		name string
		req  paging.Request
	}{
		{"zero limit", paging.Request{ScopeKey: "boosting", Limit: 0}},
		{"negative limit", paging.Request{ScopeKey: "boosting", Limit: -3}},
		{"malformed scope key", paging.Request{ScopeKey: "Not A Slug!", Limit: 5}},
		{"empty scope key", paging.Request{ScopeKey: "", Limit: 5}},
		{"garbage cursor", paging.Request{ScopeKey: "boosting", Limit: 5, Cursor: "%%%"}},
		{"cursor without id", paging.Request{ScopeKey: "boosting", Limit: 5, Cursor: paging.EncodeCursor(paging.Cursor{CreatedAt: base})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := exec.Query(ctx, tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestExecutor_Query_UnknownScopeIsEmpty(t *testing.T) {
	_, exec := seed(t, 5)

	page, err := exec.Query(context.Background(), paging.Request{ScopeKey: "no-such-category", Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.False(t, page.HasMore)
}

func TestExecutor_Query_OtherScopeIsIsolated(t *testing.T) {
	_, exec := seed(t, 5)

	page, err := exec.Query(context.Background(), paging.Request{ScopeKey: "coaching", Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestExecutor_Query_LegacyCursor(t *testing.T) {
	_, exec := seed(t, 10)
	legacy := strconv.FormatInt(base.Add(5*time.Minute).UnixMilli(), 10)

	page, err := exec.Query(context.Background(), paging.Request{ScopeKey: "boosting", Limit: 10, Cursor: legacy})
	require.NoError(t, err)
	assert.Equal(t, []string{"l-004", "l-003", "l-002", "l-001", "l-000"}, ids(page.Items))
}

func TestExecutor_Query_TiedTimestampsAreNotSkipped(t *testing.T) {
	store := memory.New()
	store.PutCategory(domain.Category{ID: "cat-1", Slug: "boosting"})
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(context.Background(), &domain.Listing{
			ID: fmt.Sprintf("t-%d", i), CategoryID: "cat-1", CreatedAt: base,
		}))
	}
	exec := paging.NewExecutor(store, store.Categories(), nil)

	var got []string
	cursor := ""
	for {
		page, err := exec.Query(context.Background(), paging.Request{ScopeKey: "boosting", Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		got = append(got, ids(page.Items)...)
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	assert.Equal(t, []string{"t-4", "t-3", "t-2", "t-1", "t-0"}, got)
}

func TestExecutor_Query_AppliesPredicate(t *testing.T) {
	_, exec := seed(t, 50)
	pred := filter.Predicate{Clauses: []filter.Clause{
		filter.NumberBetween{On: filter.FieldPrice, Min: 0, Max: 5},
	}}

	page, err := exec.Query(context.Background(), paging.Request{ScopeKey: "boosting", Limit: 50, Predicate: pred})
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)
	for _, l := range page.Items {
		assert.LessOrEqual(t, l.Price, 5.0)
	}
	// prices cycle 0..24, so 6 of every 25 rows qualify
	assert.Len(t, page.Items, 12)
}

type failingStore struct{ err error }

func (f failingStore) QueryPage(context.Context, paging.Query) ([]domain.Listing, error) {
	return nil, f.err
}

func TestExecutor_Query_StoreFailure(t *testing.T) {
	store, _ := seed(t, 1)
	boom := errors.New("connection reset")
	exec := paging.NewExecutor(failingStore{err: boom}, store.Categories(), nil)

	_, err := exec.Query(context.Background(), paging.Request{ScopeKey: "boosting", Limit: 5})
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.ErrorIs(t, err, boom)
}

type recordingObserver struct {
	items   int
	hasMore bool
	err     error
	calls   int
}

func (o *recordingObserver) ObservePage(items int, hasMore bool, _ time.Duration, err error) {
	o.calls++
	o.items, o.hasMore, o.err = items, hasMore, err
}

func TestExecutor_Query_ReportsToObserver(t *testing.T) {
	store, _ := seed(t, 7)
	obs := &recordingObserver{}
	exec := paging.NewExecutor(store, store.Categories(), obs)

	_, err := exec.Query(context.Background(), paging.Request{ScopeKey: "boosting", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, obs.calls)
	assert.Equal(t, 5, obs.items)
	assert.True(t, obs.hasMore)
	assert.NoError(t, obs.err)
}
