package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestRedisKeysArePerVariantAndBounded(t *testing.T) {
	long := "report|" + strings.Repeat("x", 10_000) + "|1"

	a := redisKey("abcd2345", "report|{}|1")
	b := redisKey("ABCD2345", "report|{}|2")
	c := redisKey("ABCD2345", long)

	if a == b {
		t.Fatal("different variants must not share a key")
	}
	if a != redisKey("ABCD2345", "report|{}|1") {
		t.Error("key must not depend on code case")
	}
	for _, k := range []string{a, b, c} {
		if !strings.HasPrefix(k, "report:ABCD2345:") {
			t.Errorf("key %q not namespaced by code", k)
		}
		if len(k) > 64 {
			t.Errorf("key %q is %d bytes", k, len(k))
		}
	}
	if redisIndexKey("abcd2345") == a {
		t.Error("index key collides with a variant key")
	}
}

func TestRedisFailsOpenWhenUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	ctx := context.Background()
	c := NewRedis(rdb, time.Minute, zap.NewNop())

	c.Set(ctx, "ABCD2345", "report|{}|1", []byte("x"))
	if _, ok := c.Get(ctx, "ABCD2345", "report|{}|1"); ok {
		t.Error("unreachable Redis must read as a miss")
	}
	c.Invalidate(ctx, "ABCD2345")
}
