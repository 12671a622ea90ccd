// Package cache stores read-model snapshots keyed by entity type and id or filter.
// Mutations invalidate by prefix.
package cache

import (
	"context"
	"sort"
	"strings"
	"time"
)

// DefaultTTL is used when a zero TTL is passed to Set.
const DefaultTTL = 60 * time.Second

// Cache is a JSON value cache with TTL and prefix invalidation.
type Cache interface {
	// Get decodes the cached value into dest and reports whether the key was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Key builds "<entity>:<part>:<part>...".
func Key(entity string, parts ...string) string {
	return strings.Join(append([]string{entity}, parts...), ":")
}

// FilterKey renders filter values as a stable query string, skipping empty values.
func FilterKey(entity string, filter map[string]string) string {
	names := make([]string, 0, len(filter))
	for name := range filter {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		value := filter[name]
		if value == "" {
			value = "all"
		}
		pairs = append(pairs, name+"="+value)
	}
	return Key(entity, "list", strings.Join(pairs, "&"))
}
