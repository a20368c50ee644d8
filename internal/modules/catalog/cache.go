package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/georgemunganga/plantshop-backend/internal/metrics"
)

const categoriesCacheKey = "catalog:categories"

// cachedRepo serves ListCategories from Redis and falls back to the wrapped
// Repository when the cache is cold or unreachable. Category writes drop the
// cached list.
type cachedRepo struct {
	Repository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRepository wraps repo with a Redis read-through cache for the
// category list.
func NewCachedRepository(repo Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger) Repository {
	return &cachedRepo{Repository: repo, client: client, ttl: ttl, logger: logger}
}

func (r *cachedRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	cached, err := r.client.Get(ctx, categoriesCacheKey).Bytes()
	switch {
	case err == nil:
		var categories []*Category
		if jerr := json.Unmarshal(cached, &categories); jerr == nil {
			metrics.RecordCacheLookup("categories", true)
			return categories, nil
		}
		r.logger.Warn("discarding malformed cached categories")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("category cache read failed, falling back to store", zap.Error(err))
	}
	metrics.RecordCacheLookup("categories", false)

	categories, err := r.Repository.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(categories); err == nil {
		if err := r.client.Set(ctx, categoriesCacheKey, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("category cache write failed", zap.Error(err))
		}
	}
	return categories, nil
}

func (r *cachedRepo) CreateCategory(ctx context.Context, c *Category) error {
	if err := r.Repository.CreateCategory(ctx, c); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedRepo) DeleteCategory(ctx context.Context, id string) error {
	if err := r.Repository.DeleteCategory(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedRepo) Purge(ctx context.Context) error {
	if err := r.Repository.Purge(ctx); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedRepo) invalidate(ctx context.Context) {
	if err := r.client.Del(ctx, categoriesCacheKey).Err(); err != nil {
		r.logger.Warn("category cache invalidation failed", zap.Error(err))
	}
}
