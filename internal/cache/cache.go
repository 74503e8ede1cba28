// Package cache provides the memoization store injected into the resolver
// and collector. Keys are derived from the raw request input; values are
// serialized results.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
// A zero TTL means the entry does not expire.
type Cache interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. Implementations follow first-writer-wins
	// semantics for concurrent writes of the same key.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
