package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// kv is the part of the redis client the cache uses.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CategoryCache is a read-through cache in front of a CategoryRepository. Redis failures
// fall back to the wrapped repository.
type CategoryCache struct {
	client kv
	next   domain.CategoryRepository
	ttl    time.Duration
	logger *logger.Logger
}

var _ domain.CategoryRepository = (*CategoryCache)(nil)

func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func NewCategoryCache(client kv, next domain.CategoryRepository, ttl time.Duration, log *logger.Logger) *CategoryCache {
	return &CategoryCache{client: client, next: next, ttl: ttl, logger: log.Named("category_cache")}
}

func (c *CategoryCache) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return c.readThrough(ctx, "category:slug:"+slug, func() (*domain.Category, error) {
		return c.next.FindBySlug(ctx, slug)
	})
}

func (c *CategoryCache) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	return c.readThrough(ctx, "category:id:"+id, func() (*domain.Category, error) {
		return c.next.FindByID(ctx, id)
	})
}

func (c *CategoryCache) readThrough(ctx context.Context, key string, load func() (*domain.Category, error)) (*domain.Category, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cat domain.Category
		if err := json.Unmarshal(data, &cat); err == nil {
			return &cat, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	cat, err := load()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(cat); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return cat, nil
}
