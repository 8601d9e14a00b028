// Package cache provides the report-response cache used by the cashflow and
// sales report endpoints: a typed interface with an in-process LRU backend,
// a Redis backend, and a no-op backend for when caching is disabled.
package cache

import (
	"context"
	"strings"
)

// ReportCache caches one report type T under string keys. Implementations
// own their TTL; callers only get and set.
type ReportCache[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T) error
}

// Noop satisfies ReportCache without caching anything.
type Noop[T any] struct{}

func (Noop[T]) Get(_ context.Context, _ string) (T, bool, error) {
	var zero T
	return zero, false, nil
}

func (Noop[T]) Set(_ context.Context, _ string, _ T) error {
	return nil
}

// Key joins request parameters into a stable cache key.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}
