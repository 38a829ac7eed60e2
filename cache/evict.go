package cache

import (
	"sort"
	"time"
)

// evictLocked bounds the index size. Callers must hold s.mu.
//
// Pass one drops every entry whose TTL has already elapsed. If the
// index is still above the hard limit, pass two sorts the survivors by
// expiry and drops the soonest-to-expire entries until the index is at
// the hard limit.
//
// This is expiry-order eviction, not true LRU: no access times are
// tracked, and short-TTL entries stand in for least-recently-refreshed
// ones.
func (s *LocalStore) evictLocked() {
	now := s.now()
	for key, expiresAt := range s.expiry {
		if now.After(expiresAt) {
			delete(s.values, key)
			delete(s.expiry, key)
		}
	}

	if len(s.expiry) <= s.hardLimit {
		return
	}

	type victim struct {
		key       string
		expiresAt time.Time
	}
	ordered := make([]victim, 0, len(s.expiry))
	for key, expiresAt := range s.expiry {
		ordered = append(ordered, victim{key: key, expiresAt: expiresAt})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].expiresAt.Before(ordered[j].expiresAt)
	})

	for _, v := range ordered[:len(ordered)-s.hardLimit] {
		delete(s.values, v.key)
		delete(s.expiry, v.key)
	}
}
