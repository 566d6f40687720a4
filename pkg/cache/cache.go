// Package cache provides pluggable byte-level caching for depotdl.
//
// Three backends implement the [Cache] interface:
//   - [FileCache]: directory-backed, for single-machine CLI usage
//   - [RedisCache]: Redis-backed, for sharing resolved builds and manifest
//     bytes across processes or machines
//   - [NullCache]: no-op, for tests and --no-cache runs
//
// Values are opaque byte slices; callers own serialization. Keys should be
// namespaced by the caller (e.g., "manifest:1207658924") to avoid
// collisions between different data kinds sharing one backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-level key/value store with optional per-entry TTL.
//
// Implementations must be safe for concurrent use. A TTL of 0 means the
// entry never expires.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present (and unexpired).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL (0 = no expiration).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
