package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/revreport/backend/internal/domain/revenue"
	"go.uber.org/zap"
)

const catalogCacheKey = "revreport:catalog:products"

// RedisCatalogCache is a read-through cache in front of the catalog store.
// The catalog changes rarely but is read on every report, so a short TTL
// takes it off the hot path. Any Redis failure falls through to the inner
// store; the cache can never make a report fail.
type RedisCatalogCache struct {
	inner  revenue.CatalogStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisCatalogCache creates a catalog cache over a new Redis connection
func NewRedisCatalogCache(cfg RedisConfig, inner revenue.CatalogStore, ttl time.Duration, logger *zap.Logger) (*RedisCatalogCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCatalogCacheWithClient(client, inner, ttl, logger), nil
}

// NewRedisCatalogCacheWithClient creates a catalog cache with an existing
// Redis client. Useful for testing or when sharing a client across components
func NewRedisCatalogCacheWithClient(client *redis.Client, inner revenue.CatalogStore, ttl time.Duration, logger *zap.Logger) *RedisCatalogCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCatalogCache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// ListProducts returns the catalog from cache when fresh, loading and
// repopulating it from the inner store otherwise.
func (c *RedisCatalogCache) ListProducts(ctx context.Context) ([]revenue.CatalogProduct, error) {
	if cached, err := c.client.Get(ctx, catalogCacheKey).Bytes(); err == nil {
		var products []revenue.CatalogProduct
		if err := json.Unmarshal(cached, &products); err == nil {
			return products, nil
		}
		// Corrupt entry, drop it and reload
		c.client.Del(ctx, catalogCacheKey)
	} else if err != redis.Nil {
		c.logger.Warn("catalog cache read failed, loading from store", zap.Error(err))
	}

	products, err := c.inner.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(products); err == nil {
		if err := c.client.Set(ctx, catalogCacheKey, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return products, nil
}

// Invalidate drops the cached catalog so the next read hits the store.
func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, catalogCacheKey).Err()
}
