package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/memory"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value.([]byte))
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

type countingCategories struct {
	domain.CategoryRepository
	calls int
}

func (c *countingCategories) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	c.calls++
	return c.CategoryRepository.FindBySlug(ctx, slug)
}

func setup() (*fakeKV, *countingCategories, *CategoryCache) {
	store := memory.New()
	store.PutCategory(domain.Category{ID: "cat-1", Slug: "boosting", Name: "Boosting"})
	next := &countingCategories{CategoryRepository: store.Categories()}
	kv := newFakeKV()
	return kv, next, NewCategoryCache(kv, next, time.Minute, logger.NewNop())
}

func TestCategoryCache_ReadThrough(t *testing.T) {
	kv, next, c := setup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cat, err := c.FindBySlug(ctx, "boosting")
		require.NoError(t, err)
		assert.Equal(t, "cat-1", cat.ID)
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, time.Minute, kv.ttls["category:slug:boosting"])
}

func TestCategoryCache_NotFoundIsNotCached(t *testing.T) {
	kv, next, c := setup()

	for i := 0; i < 2; i++ {
		_, err := c.FindBySlug(context.Background(), "nope")
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	}
	assert.Equal(t, 2, next.calls)
	assert.Empty(t, kv.data)
}

func TestCategoryCache_RedisDownFallsBack(t *testing.T) {
	kv, next, c := setup()
	kv.failGet = errors.New("dial tcp: connection refused")

	cat, err := c.FindBySlug(context.Background(), "boosting")
	require.NoError(t, err)
	assert.Equal(t, "Boosting", cat.Name)
	assert.Equal(t, 1, next.calls)
}

func TestCategoryCache_FindByID(t *testing.T) {
	kv, _, c := setup()

	cat, err := c.FindByID(context.Background(), "cat-1")
	require.NoError(t, err)
	assert.Equal(t, "boosting", cat.Slug)
	assert.Contains(t, kv.data, "category:id:cat-1")
}
