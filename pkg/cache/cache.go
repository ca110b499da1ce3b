// Package cache stores analysis service responses.
//
// Analysis requests are pure functions of their payload, so a response can
// be reused whenever the same payload is sent to the same endpoint. Keys are
// built by a [Keyer] from the endpoint and a SHA-256 hash of the body.
//
// Backends:
//
//   - [FileCache]: hash-sharded JSON files, the CLI default
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: disables caching (--no-cache)
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored data and true on a hit. A miss or an expired
	// entry returns false with a nil error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error
	// Close releases resources held by the backend.
	Close() error
}
