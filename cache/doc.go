// Package cache provides a two-tier cache for expensive operations: a
// shared remote store backed by Redis with an in-process bounded
// fallback store.
//
// It provides deterministic key derivation, a write-through manager
// with a degraded-remote policy, expiry-order eviction for the local
// tier, pattern invalidation, hit/miss metrics, a generic memoization
// wrapper, and a startup cache warmer.
package cache
