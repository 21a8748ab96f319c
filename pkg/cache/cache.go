// Package cache stores rendered artifacts keyed by the content they were
// rendered from.
//
// SVG rendering runs Graphviz in-process and dominates the cost of the dot
// and serve commands; the DOT source fully determines the output, so its
// hash is a sound key. [FileCache] keeps entries under the user's cache
// directory, [NullCache] disables caching.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the entry for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// GetOrCreate returns the cached entry for key, or calls create and stores
// its result. Cache read and write failures are not fatal: create runs and
// its result is returned uncached.
func GetOrCreate(ctx context.Context, c Cache, key string, ttl time.Duration, create func() ([]byte, error)) (data []byte, hit bool, err error) {
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}
	data, err = create()
	if err != nil {
		return nil, false, err
	}
	_ = c.Set(ctx, key, data, ttl)
	return data, false, nil
}
