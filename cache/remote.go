package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/tiercache/observe"
)

// scanBatch is the COUNT hint passed to the remote SCAN.
const scanBatch = 100

// RemoteStore is the shared tier, backed by Redis.
//
// Every operation is best-effort: failures and timeouts are swallowed,
// reported as a miss or false, and logged. Callers must never depend on
// the remote tier being reachable; the manager falls through to the
// local tier.
type RemoteStore struct {
	client  *redis.Client
	timeout time.Duration
	logger  observe.Logger
}

// NewRemoteStore connects to the remote store and probes it once. A
// failed probe returns ErrRemoteUnavailable; callers are expected to
// run fallback-only for the process lifetime rather than retry per
// request.
func NewRemoteStore(ctx context.Context, url string, timeout time.Duration, logger observe.Logger) (*RemoteStore, error) {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	if logger == nil {
		logger = observe.NopLogger()
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse remote url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	return &RemoteStore{
		client:  client,
		timeout: timeout,
		logger:  logger.With(observe.String("cache.tier", "remote")),
	}, nil
}

// bound caps a remote round-trip so a slow or dead remote cannot stall
// the caller beyond the configured timeout.
func (s *RemoteStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Get retrieves a value. Any remote failure is reported as a miss.
func (s *RemoteStore) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Debug(ctx, "remote get failed", observe.String("key", key), observe.Err(err))
		return nil, false
	}
	return value, true
}

// Set stores a value with the full requested TTL. TTL<=0 means no caching.
func (s *RemoteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.Debug(ctx, "remote set failed", observe.String("key", key), observe.Err(err))
		return false
	}
	return true
}

// Delete removes a value. Returns true if an entry was removed.
func (s *RemoteStore) Delete(ctx context.Context, key string) bool {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		s.logger.Debug(ctx, "remote delete failed", observe.String("key", key), observe.Err(err))
		return false
	}
	return removed > 0
}

// Scan returns the keys matching pattern using the remote's native
// cursor scan. A failed scan returns whatever was collected so far.
func (s *RemoteStore) Scan(ctx context.Context, pattern string) []string {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Debug(ctx, "remote scan failed", observe.String("pattern", pattern), observe.Err(err))
	}
	return keys
}

// Flush removes every entry in the remote database.
func (s *RemoteStore) Flush(ctx context.Context) bool {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.client.FlushDB(ctx).Err(); err != nil {
		s.logger.Warn(ctx, "remote flush failed", observe.Err(err))
		return false
	}
	return true
}

// Close releases the underlying connection pool.
func (s *RemoteStore) Close() error {
	return s.client.Close()
}

// Ensure RemoteStore implements Store
var _ Store = (*RemoteStore)(nil)
