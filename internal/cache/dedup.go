package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func dedupKey(scope, key string) string {
	return "dedup:" + scope + ":" + key
}

// RedisDeduper remembers idempotency keys in Redis so every replica sees
// them. It fails open.
type RedisDeduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, ttl: ttl, logger: logger}
}

// AcquireOnce returns true the first time scope + key is seen within ttl.
func (d *RedisDeduper) AcquireOnce(ctx context.Context, scope, key string) bool {
	ok, err := d.rdb.SetNX(ctx, dedupKey(scope, key), 1, d.ttl).Result()
	if err != nil {
		// Redis 不可用时不阻止处理
		d.logger.Warn("idempotency check failed, allowing request",
			zap.String("scope", scope),
			zap.Error(err),
		)
		return true
	}
	if !ok {
		d.logger.Info("rejected duplicate request", zap.String("scope", scope), zap.String("key", key))
	}
	return ok
}

// Release forgets scope + key.
func (d *RedisDeduper) Release(ctx context.Context, scope, key string) {
	if err := d.rdb.Del(ctx, dedupKey(scope, key)).Err(); err != nil {
		d.logger.Warn("failed to release idempotency key",
			zap.String("scope", scope),
			zap.Error(err),
		)
	}
}

// LocalDeduper keeps idempotency keys in process, for single-instance
// deployments without Redis.
type LocalDeduper struct {
	cache *gocache.Cache
}

func NewLocalDeduper(ttl time.Duration) *LocalDeduper {
	return &LocalDeduper{cache: gocache.New(ttl, 2*ttl)}
}

// AcquireOnce returns true the first time scope + key is seen within ttl.
func (d *LocalDeduper) AcquireOnce(_ context.Context, scope, key string) bool {
	return d.cache.Add(dedupKey(scope, key), struct{}{}, gocache.DefaultExpiration) == nil
}

func (d *LocalDeduper) Release(_ context.Context, scope, key string) {
	d.cache.Delete(dedupKey(scope, key))
}
