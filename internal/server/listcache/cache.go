// Package listcache caches rendered file listings per user and invalidates
// them on every mutation, so stale listings are never served after an
// upload, rename, share or delete.
package listcache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned by Get when no entry exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a small byte cache keyed by listing identity. Implementations:
// RedisCache for deployments, MemoryCache for development and tests.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Invalidate drops all listing entries for the given user emails.
	Invalidate(ctx context.Context, emails ...string) error
}

// ListKey builds the cache key for one user's listing with a given query
// fingerprint. All variants for a user share the email prefix so a single
// prefix invalidation covers them.
func ListKey(email, fingerprint string) string {
	return fmt.Sprintf("files:list:%s:%s", email, fingerprint)
}

func listPrefix(email string) string {
	return fmt.Sprintf("files:list:%s:", email)
}
