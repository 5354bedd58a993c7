// Package cache stores rendered public report snapshots keyed by project
// code. Every implementation fails open: errors are logged and treated as
// a miss.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ReportCache is keyed by project code plus a variant string describing
// the query (filter, page, view kind). Invalidate drops every variant of a
// code.
type ReportCache interface {
	Get(ctx context.Context, code, variant string) ([]byte, bool)
	Set(ctx context.Context, code, variant string, data []byte)
	Invalidate(ctx context.Context, code string)
}

// DefaultTTL bounds how stale a public report may be if an invalidation is
// ever missed. Each variant expires on its own; storing one variant never
// extends another.
const DefaultTTL = 5 * time.Minute

// MaxVariants caps how many variants the Redis cache holds for one code.
// Public report URLs carry free text, so without a cap one code could fill
// the shared cache.
const MaxVariants = 256

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, string) ([]byte, bool) { return nil, false }
func (Nop) Set(context.Context, string, string, []byte)        {}
func (Nop) Invalidate(context.Context, string)                 {}

// variantDigest keeps keys short whatever the query text was.
func variantDigest(variant string) string {
	sum := sha256.Sum256([]byte(variant))
	return hex.EncodeToString(sum[:16])
}

func redisKey(code, variant string) string {
	return "report:" + strings.ToUpper(code) + ":" + variantDigest(variant)
}

// redisIndexKey is the set of variant keys stored for a code.
func redisIndexKey(code string) string {
	return "report:" + strings.ToUpper(code) + ":variants"
}

func localKey(code, variant string) string {
	return localPrefix(code) + variantDigest(variant)
}

func localPrefix(code string) string {
	return strings.ToUpper(code) + "|"
}
