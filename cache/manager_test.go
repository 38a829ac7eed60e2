package cache

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeRemote is an in-memory stand-in for the shared tier. It honors
// TTLs against a movable clock and can be forced to fail.
type fakeRemote struct {
	mu     sync.Mutex
	values map[string][]byte
	expiry map[string]time.Time
	now    func() time.Time

	failing bool
	sets    int
	gets    int
}

func newFakeRemote(clock *testClock) *fakeRemote {
	now := time.Now
	if clock != nil {
		now = clock.Now
	}
	return &fakeRemote{
		values: make(map[string][]byte),
		expiry: make(map[string]time.Time),
		now:    now,
	}
}

func (f *fakeRemote) Get(_ context.Context, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.failing {
		return nil, false
	}
	expiresAt, ok := f.expiry[key]
	if !ok || f.now().After(expiresAt) {
		return nil, false
	}
	return f.values[key], true
}

func (f *fakeRemote) Set(_ context.Context, key string, value []byte, ttl time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.failing || ttl <= 0 {
		return false
	}
	f.values[key] = value
	f.expiry[key] = f.now().Add(ttl)
	return true
}

func (f *fakeRemote) Delete(_ context.Context, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return false
	}
	_, ok := f.values[key]
	delete(f.values, key)
	delete(f.expiry, key)
	return ok
}

func (f *fakeRemote) Scan(_ context.Context, pattern string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil
	}
	literal := strings.TrimSuffix(pattern, "*")
	var keys []string
	for key := range f.values {
		if strings.Contains(key, literal) {
			keys = append(keys, key)
		}
	}
	return keys
}

func (f *fakeRemote) Flush(_ context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return false
	}
	f.values = make(map[string][]byte)
	f.expiry = make(map[string]time.Time)
	return true
}

var _ Store = (*fakeRemote)(nil)

func newTestManager(remote Store) (*Manager, *LocalStore, *testClock) {
	local, clock := newTestLocalStore(Config{})
	manager := NewManager(Config{}, remote, local, nil, nil)
	return manager, local, clock
}

func TestManager_FallbackOnly(t *testing.T) {
	// No remote tier at all: set then get must round-trip locally.
	manager, _, _ := newTestManager(nil)
	ctx := context.Background()

	value := []byte(`{"a":1}`)
	if !manager.Set(ctx, "k1", value, time.Minute) {
		t.Fatal("Set failed with remote absent")
	}

	got, ok := manager.Get(ctx, "k1")
	if !ok {
		t.Fatal("Get after Set should hit the local tier")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}
	if manager.RemoteEnabled() {
		t.Error("RemoteEnabled should be false")
	}
}

func TestManager_WriteThrough(t *testing.T) {
	clock := newTestClock()
	remote := newFakeRemote(clock)
	local := NewLocalStore(Config{})
	local.now = clock.Now
	manager := NewManager(Config{}, remote, local, nil, nil)
	ctx := context.Background()

	value := []byte("payload")
	manager.Set(ctx, "k1", value, time.Minute)

	// Simulate a process restart by clearing the local tier; the value
	// must still come back from the remote tier.
	local.Flush(ctx)

	got, ok := manager.Get(ctx, "k1")
	if !ok {
		t.Fatal("Get should be served by the remote tier after local flush")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}
}

func TestManager_RemoteFailureFallsThrough(t *testing.T) {
	clock := newTestClock()
	remote := newFakeRemote(clock)
	local := NewLocalStore(Config{})
	local.now = clock.Now
	manager := NewManager(Config{}, remote, local, nil, nil)
	ctx := context.Background()

	remote.failing = true

	// The remote write fails silently; the local write still lands.
	if !manager.Set(ctx, "k1", []byte("v"), time.Minute) {
		t.Fatal("Set should succeed on the local tier despite remote failure")
	}
	if _, ok := manager.Get(ctx, "k1"); !ok {
		t.Error("Get should fall through to the local tier")
	}

	// Callers never see the failure, only the stats do.
	if stats := manager.Stats(TierRemote); stats.Misses == 0 {
		t.Error("remote misses should be recorded")
	}
	if stats := manager.Stats(TierLocal); stats.Hits == 0 {
		t.Error("local hits should be recorded")
	}
}

func TestManager_TTLExpiryBothTiers(t *testing.T) {
	clock := newTestClock()
	remote := newFakeRemote(clock)
	local := NewLocalStore(Config{})
	local.now = clock.Now
	manager := NewManager(Config{}, remote, local, nil, nil)
	ctx := context.Background()

	manager.Set(ctx, "k1", []byte("v"), 1*time.Second)

	if _, ok := manager.Get(ctx, "k1"); !ok {
		t.Fatal("entry should be present immediately after Set")
	}

	clock.Advance(2 * time.Second)

	if _, ok := manager.Get(ctx, "k1"); ok {
		t.Error("entry should be absent on both tiers after expiry")
	}
}

func TestManager_Delete(t *testing.T) {
	clock := newTestClock()
	remote := newFakeRemote(clock)
	local := NewLocalStore(Config{})
	local.now = clock.Now
	manager := NewManager(Config{}, remote, local, nil, nil)
	ctx := context.Background()

	manager.Set(ctx, "k1", []byte("v"), time.Minute)

	if !manager.Delete(ctx, "k1") {
		t.Error("Delete of existing key should return true")
	}
	if _, ok := manager.Get(ctx, "k1"); ok {
		t.Error("Get after Delete should be absent")
	}
	if manager.Delete(ctx, "k1") {
		t.Error("Delete of missing key should return false")
	}

	// Removal on a single tier still counts.
	manager.Set(ctx, "k2", []byte("v"), time.Minute)
	remote.failing = true
	if !manager.Delete(ctx, "k2") {
		t.Error("Delete should report true when the local tier removed the entry")
	}
}

func TestManager_InvalidatePattern(t *testing.T) {
	clock := newTestClock()
	remote := newFakeRemote(clock)
	local := NewLocalStore(Config{})
	local.now = clock.Now
	manager := NewManager(Config{}, remote, local, nil, nil)
	ctx := context.Background()

	manager.Set(ctx, "disease:diabetes:x", []byte("v1"), time.Minute)
	manager.Set(ctx, "disease:flu:x", []byte("v2"), time.Minute)

	manager.InvalidatePattern(ctx, "disease:diabetes:*")

	if _, ok := manager.Get(ctx, "disease:diabetes:x"); ok {
		t.Error("diabetes entry should be invalidated on both tiers")
	}
	got, ok := manager.Get(ctx, "disease:flu:x")
	if !ok {
		t.Fatal("flu entry should survive the pattern invalidation")
	}
	if !bytes.Equal(got, []byte("v2")) {
		t.Errorf("flu entry corrupted: %q", got)
	}
}

func TestManager_InvalidateAll(t *testing.T) {
	clock := newTestClock()
	remote := newFakeRemote(clock)
	local := NewLocalStore(Config{})
	local.now = clock.Now
	manager := NewManager(Config{}, remote, local, nil, nil)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		manager.Set(ctx, key, []byte("v"), time.Minute)
	}

	manager.InvalidateAll(ctx)

	for _, key := range []string{"a", "b", "c"} {
		if _, ok := manager.Get(ctx, key); ok {
			t.Errorf("entry %q survived InvalidateAll", key)
		}
	}
}

func TestManager_RemoteTriedFirst(t *testing.T) {
	clock := newTestClock()
	remote := newFakeRemote(clock)
	local := NewLocalStore(Config{})
	local.now = clock.Now
	manager := NewManager(Config{}, remote, local, nil, nil)
	ctx := context.Background()

	// Distinct payloads per tier to observe which one answers.
	remote.Set(ctx, "k1", []byte("remote"), time.Minute)
	local.Set(ctx, "k1", []byte("local"), time.Minute)

	got, ok := manager.Get(ctx, "k1")
	if !ok {
		t.Fatal("Get missed with both tiers populated")
	}
	if string(got) != "remote" {
		t.Errorf("Get = %q, want the remote tier's value", got)
	}
}

func TestManager_InvalidKeysRejected(t *testing.T) {
	manager, _, _ := newTestManager(nil)
	ctx := context.Background()

	if manager.Set(ctx, "", []byte("v"), time.Minute) {
		t.Error("Set with empty key should fail")
	}
	if manager.Set(ctx, "bad\nkey", []byte("v"), time.Minute) {
		t.Error("Set with newline in key should fail")
	}
	if _, ok := manager.Get(ctx, ""); ok {
		t.Error("Get with empty key should miss")
	}
}

func TestManager_DefaultTTLApplied(t *testing.T) {
	manager, local, clock := newTestManager(nil)
	ctx := context.Background()

	// TTL<=0 falls back to the configured default rather than skipping
	// the write.
	if !manager.Set(ctx, "k1", []byte("v"), 0) {
		t.Fatal("Set with zero TTL should use the default TTL")
	}
	if _, ok := manager.Get(ctx, "k1"); !ok {
		t.Error("entry with defaulted TTL should be present")
	}

	clock.Advance(DefaultLocalMaxTTL + time.Second)
	if _, ok := manager.Get(ctx, "k1"); ok {
		t.Error("entry should expire at the local cap")
	}
	_ = local
}
