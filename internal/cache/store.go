// Package cache provides the shared key/value store behind rate limiting and
// the cached landing page counters. Redis is used when configured, the SQL
// database otherwise.
package cache

import (
	"context"
	"strings"
	"time"
)

// Store is implemented by RedisStore and DatabaseStore.
type Store interface {
	// IncrementWithTTL bumps a fixed-window counter. The window starts at the
	// first increment; the returned duration is what is left of it.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// Set stores value. A ttl of zero or less keeps it until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get reports false for missing and expired keys.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

var (
	_ Store = (*DatabaseStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// Key builds a cache key from a namespace and parts, joined with ':'.
// Empty parts are skipped.
func Key(namespace string, parts ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
