// Package cache stores opaque byte values under string keys.
//
// The scanner uses it to keep `cargo metadata` output between runs: the
// command is by far the slowest step of a scan and its output only changes
// when a manifest or lock file does. Callers are responsible for validating
// what they read back; the cache only enforces expiry.
//
// # Implementations
//
//   - [FileCache]: one JSON file per entry below a directory
//   - [NullCache]: stores nothing, for disabled caching and tests
//
// # Keys
//
// [Key] hashes arbitrary JSON-encodable parts into a fixed-length key, so
// argument lists and paths can be used directly:
//
//	key := cache.Key("cargo-metadata", binary, args)
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is a key-value store with optional expiry.
type Cache interface {
	// Get returns the value stored under key. A missing or expired entry is
	// a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the cache.
	Close() error
}

// Key generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func Key(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
