package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrInvalidKey indicates a key is empty, blank, or contains line breaks.
	ErrInvalidKey = errors.New("cache: key is invalid")

	// ErrKeyTooLong indicates a key exceeds MaxKeyLength.
	ErrKeyTooLong = errors.New("cache: key exceeds max length")

	// ErrRemoteUnavailable indicates the remote store could not be reached.
	ErrRemoteUnavailable = errors.New("cache: remote store unavailable")

	// ErrNilOperation indicates a memoized operation function is nil.
	ErrNilOperation = errors.New("cache: operation is nil")

	// ErrWarmerStarted indicates a warm task was registered after Start.
	ErrWarmerStarted = errors.New("cache: warmer already started")
)

// Configuration errors.
var (
	// ErrInvalidLimits indicates the hard limit exceeds the soft limit.
	ErrInvalidLimits = errors.New("cache: hard limit must not exceed soft limit")

	// ErrNegativeTTL indicates a negative TTL in the configuration.
	ErrNegativeTTL = errors.New("cache: ttl must not be negative")
)
