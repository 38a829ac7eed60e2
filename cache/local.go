package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// LocalStore is the in-process fallback tier: a bounded key-value index
// guarded by a single mutex.
//
// Values and expiry timestamps live in two parallel maps that are
// always mutated together under the lock; the expiry map doubles as the
// eviction sort order. Expiry is checked lazily on Get rather than by a
// background sweep, and the requested TTL is capped at the configured
// local maximum. Contents do not survive a process restart.
type LocalStore struct {
	mu     sync.Mutex
	values map[string][]byte
	expiry map[string]time.Time

	maxTTL    time.Duration
	softLimit int
	hardLimit int

	now func() time.Time // swapped out in tests
}

// NewLocalStore creates a local store bounded by cfg's limits.
func NewLocalStore(cfg Config) *LocalStore {
	cfg = cfg.withDefaults()
	return &LocalStore{
		values:    make(map[string][]byte),
		expiry:    make(map[string]time.Time),
		maxTTL:    cfg.LocalMaxTTL,
		softLimit: cfg.SoftLimit,
		hardLimit: cfg.HardLimit,
		now:       time.Now,
	}
}

// Get retrieves a value. An entry whose TTL has elapsed is removed on
// the spot and reported as a miss.
func (s *LocalStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.expiry[key]
	if !ok {
		return nil, false
	}
	if s.now().After(expiresAt) {
		delete(s.values, key)
		delete(s.expiry, key)
		return nil, false
	}
	return s.values[key], true
}

// Set stores value for min(ttl, the local TTL cap) and evicts if the
// index has grown past the soft limit. TTL<=0 means no caching.
func (s *LocalStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	if ttl > s.maxTTL {
		ttl = s.maxTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.expiry[key] = s.now().Add(ttl)

	if len(s.expiry) > s.softLimit {
		s.evictLocked()
	}
	return true
}

// Delete removes a value. Returns true if an entry was removed.
func (s *LocalStore) Delete(_ context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.expiry[key]
	delete(s.values, key)
	delete(s.expiry, key)
	return ok
}

// Scan emulates pattern matching over the index: a trailing '*' is
// stripped and keys containing the remaining literal are returned.
func (s *LocalStore) Scan(_ context.Context, pattern string) []string {
	literal := strings.TrimSuffix(pattern, "*")

	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for key := range s.values {
		if strings.Contains(key, literal) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Flush clears the index and the expiry map.
func (s *LocalStore) Flush(_ context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string][]byte)
	s.expiry = make(map[string]time.Time)
	return true
}

// Len reports the number of entries currently indexed, expired or not.
func (s *LocalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// desynced reports whether the value and expiry maps disagree. The two
// are only ever mutated together under the lock, so any divergence is a
// programming error that tests should fail loudly on.
func (s *LocalStore) desynced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values) != len(s.expiry) {
		return true
	}
	for key := range s.values {
		if _, ok := s.expiry[key]; !ok {
			return true
		}
	}
	return false
}

// Ensure LocalStore implements Store
var _ Store = (*LocalStore)(nil)
