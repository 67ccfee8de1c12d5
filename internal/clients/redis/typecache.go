package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/schemaflow-backend/internal/platform/envutil"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
)

const typeKeyPrefix = "schemaflow:doctypes:"

// TypeCache caches the distinct document types per country so the fuzzy
// matcher's hot read path skips the database. Every cache miss or Redis
// error degrades to a store read, never to a workflow failure.
type TypeCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewTypeCacheFromEnv returns nil when REDIS_ADDR is unset, which disables
// caching entirely.
func NewTypeCacheFromEnv(log *logger.Logger) *TypeCache {
	addr := envutil.Str("REDIS_ADDR", "")
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: envutil.Str("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
	})
	return &TypeCache{
		rdb: rdb,
		ttl: envutil.Duration("TYPE_CACHE_TTL", 5*time.Minute),
		log: log.With("client", "TypeCache"),
	}
}

func (c *TypeCache) Get(ctx context.Context, country string) ([]string, bool) {
	raw, err := c.rdb.Get(ctx, typeKeyPrefix+country).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("type cache read failed", "country", country, "error", err)
		}
		return nil, false
	}
	var types []string
	if err := json.Unmarshal(raw, &types); err != nil {
		c.log.Warn("type cache entry corrupt, dropping", "country", country, "error", err)
		c.Invalidate(ctx, country)
		return nil, false
	}
	return types, true
}

func (c *TypeCache) Set(ctx context.Context, country string, types []string) {
	raw, err := json.Marshal(types)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, typeKeyPrefix+country, raw, c.ttl).Err(); err != nil {
		c.log.Warn("type cache write failed", "country", country, "error", err)
	}
}

func (c *TypeCache) Invalidate(ctx context.Context, country string) {
	if err := c.rdb.Del(ctx, typeKeyPrefix+country).Err(); err != nil {
		c.log.Warn("type cache invalidation failed", "country", country, "error", err)
	}
}

func (c *TypeCache) Close() error {
	return c.rdb.Close()
}
