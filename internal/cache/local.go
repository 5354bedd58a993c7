package cache

import (
	"context"
	"strings"
	"time"

	"seotrack/pkg/metrics"

	gocache "github.com/patrickmn/go-cache"
)

// Local is an in-process ReportCache for single-instance deployments.
type Local struct {
	cache *gocache.Cache
}

func NewLocal(ttl time.Duration) *Local {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Local{cache: gocache.New(ttl, 2*ttl)}
}

func (c *Local) Get(_ context.Context, code, variant string) ([]byte, bool) {
	value, found := c.cache.Get(localKey(code, variant))
	if !found {
		metrics.IncrementReportCache("miss")
		return nil, false
	}
	metrics.IncrementReportCache("hit")
	return value.([]byte), true
}

func (c *Local) Set(_ context.Context, code, variant string, data []byte) {
	c.cache.Set(localKey(code, variant), data, gocache.DefaultExpiration)
}

func (c *Local) Invalidate(_ context.Context, code string) {
	prefix := localPrefix(code)
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}
