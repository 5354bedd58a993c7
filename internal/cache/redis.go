package cache

import (
	"context"
	"errors"
	"time"

	"seotrack/pkg/circuitbreaker"
	"seotrack/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis stores each variant under its own key with its own TTL and keeps
// the keys of a code in an index set, so Invalidate can drop them all.
// Get and Set go through a breaker; while it is open the cache is skipped
// and reports are built from the store.
type Redis struct {
	rdb     *redis.Client
	ttl     time.Duration
	breaker *circuitbreaker.Breaker
	logger  *zap.Logger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cfg := circuitbreaker.DefaultConfig()
	cfg.Timeout = 10 * time.Second
	cfg.OnStateChange = func(from, to circuitbreaker.State) {
		logger.Warn("report cache breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return &Redis{rdb: rdb, ttl: ttl, breaker: circuitbreaker.New(cfg), logger: logger}
}

func (c *Redis) Get(ctx context.Context, code, variant string) ([]byte, bool) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.rdb.Get(ctx, redisKey(code, variant)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		metrics.IncrementReportCache("skipped")
		return nil, false
	case err != nil:
		// Redis 不可用时直接回源
		c.logger.Warn("report cache read failed", zap.String("code", code), zap.Error(err))
		metrics.IncrementReportCache("error")
		return nil, false
	case data == nil:
		metrics.IncrementReportCache("miss")
		return nil, false
	}
	metrics.IncrementReportCache("hit")
	return data, true
}

func (c *Redis) Set(ctx context.Context, code, variant string, data []byte) {
	key := redisKey(code, variant)
	index := redisIndexKey(code)
	full := false
	err := c.breaker.Execute(func() error {
		n, err := c.rdb.SCard(ctx, index).Result()
		if err != nil {
			return err
		}
		if n >= MaxVariants {
			full = true
			return nil
		}

		pipe := c.rdb.TxPipeline()
		pipe.Set(ctx, key, data, c.ttl)
		pipe.SAdd(ctx, index, key)
		// 索引至少要活得和最新的条目一样久
		pipe.Expire(ctx, index, c.ttl)
		_, err = pipe.Exec(ctx)
		return err
	})
	switch {
	case full:
		c.logger.Debug("report cache full for code", zap.String("code", code))
		metrics.IncrementReportCache("skipped")
	case err != nil && !errors.Is(err, circuitbreaker.ErrOpen):
		c.logger.Warn("report cache write failed", zap.String("code", code), zap.Error(err))
		metrics.IncrementReportCache("error")
	}
}

// Invalidate bypasses the breaker: a stale entry must not outlive a write
// just because earlier reads failed.
func (c *Redis) Invalidate(ctx context.Context, code string) {
	index := redisIndexKey(code)
	keys, err := c.rdb.SMembers(ctx, index).Result()
	if err == nil {
		err = c.rdb.Del(ctx, append(keys, index)...).Err()
	}
	if err != nil {
		c.logger.Warn("report cache invalidation failed", zap.String("code", code), zap.Error(err))
		metrics.IncrementReportCache("error")
	}
}
