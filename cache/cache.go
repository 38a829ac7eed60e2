package cache

import (
	"context"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Store is the interface shared by both cache tiers.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must honor cancellation/deadlines where applicable.
// - Errors: Get never errors; it returns (nil, false) on miss or failure.
//   Set, Delete and Flush report failure as false rather than an error,
//   because tier failures must never propagate to callers.
type Store interface {
	// Get retrieves a cached value. Returns (nil, false) on miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the given TTL. TTL<=0 means no caching.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool

	// Delete removes a cached value. Returns true if an entry was removed.
	Delete(ctx context.Context, key string) bool

	// Scan returns the keys matching pattern. A trailing '*' is a
	// wildcard; the remainder is matched literally.
	Scan(ctx context.Context, pattern string) []string

	// Flush removes every entry from the store.
	Flush(ctx context.Context) bool
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
