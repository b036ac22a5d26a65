package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appbilling "github.com/paytrack/backend/internal/application/billing"
)

// RedisDashboardCache implements DashboardCache on Redis. Suitable for
// deployments where several instances must share cache state and see
// each other's invalidations.
//
// The cache is advisory: every Redis error degrades to a miss or a
// skipped write and is logged, never surfaced to the caller.
type RedisDashboardCache struct {
	client *redis.Client
	logger *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisDashboardCache creates a Redis-backed dashboard cache
func NewRedisDashboardCache(cfg RedisConfig, logger *zap.Logger) (*RedisDashboardCache, error) {
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

	return &RedisDashboardCache{client: client, logger: logger}, nil
}

// NewRedisDashboardCacheWithClient creates a cache with an existing
// Redis client. Useful for tests and for sharing a client across
// components.
func NewRedisDashboardCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisDashboardCache {
	return &RedisDashboardCache{client: client, logger: logger}
}

// Get returns the cached dashboard response for the key, if present
func (c *RedisDashboardCache) Get(ctx context.Context, key string) (*appbilling.DashboardResponse, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var response appbilling.DashboardResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		c.logger.Warn("dashboard cache entry corrupt, dropping", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key).Err()
		return nil, false
	}
	return &response, true
}

// Set stores the dashboard response under the key for the given TTL
func (c *RedisDashboardCache) Set(ctx context.Context, key string, response *appbilling.DashboardResponse, ttl time.Duration) {
	payload, err := json.Marshal(response)
	if err != nil {
		c.logger.Warn("dashboard cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateTenant drops every cached dashboard of one tenant. Keys are
// scanned by the tenant prefix so a new filter signature never escapes
// invalidation.
func (c *RedisDashboardCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) {
	pattern := fmt.Sprintf("dash:%s:*", tenantID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("dashboard cache invalidation failed",
				zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("dashboard cache scan failed",
			zap.String("pattern", pattern), zap.Error(err))
	}
}

// Close closes the Redis client
func (c *RedisDashboardCache) Close() error {
	return c.client.Close()
}

var _ appbilling.DashboardCache = (*RedisDashboardCache)(nil)
