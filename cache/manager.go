package cache

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/tiercache/observe"
)

// Manager fronts the two cache tiers behind one get/set/delete
// contract.
//
// Reads try the remote tier first and fall back to the local tier.
// Writes go through both: the local tier always, with its capped TTL,
// and the remote tier best-effort with the full TTL. From the caller's
// perspective the cache behaves identically whether or not a remote
// tier exists.
//
// Managers are constructed explicitly and passed to whatever needs
// caching; there is no process-wide instance. The local index is owned
// by the manager and must not be touched by callers.
type Manager struct {
	cfg     Config
	remote  Store // nil when the remote tier is disabled or unreachable
	local   *LocalStore
	metrics *Collector
	logger  observe.Logger
}

// New builds a Manager from cfg: the local tier always, the remote tier
// when configured and reachable. A failed liveness probe logs a warning
// and leaves the manager fallback-only for the process lifetime, so an
// unreachable remote never turns into a per-request retry storm.
func New(ctx context.Context, cfg Config, logger observe.Logger, meter metric.Meter) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = observe.NopLogger()
	}

	metrics, err := NewCollector(meter)
	if err != nil {
		return nil, err
	}

	var remote Store
	if cfg.RemoteURL != "" && !cfg.DisableRemote {
		rs, err := NewRemoteStore(ctx, cfg.RemoteURL, cfg.RemoteTimeout, logger)
		if err != nil {
			logger.Warn(ctx, "remote cache unavailable, running fallback-only", observe.Err(err))
		} else {
			remote = rs
		}
	}

	return NewManager(cfg, remote, NewLocalStore(cfg), metrics, logger), nil
}

// NewManager wires a Manager from explicit tiers. remote may be nil for
// fallback-only mode.
func NewManager(cfg Config, remote Store, local *LocalStore, metrics *Collector, logger observe.Logger) *Manager {
	cfg = cfg.withDefaults()
	if local == nil {
		local = NewLocalStore(cfg)
	}
	if metrics == nil {
		metrics, _ = NewCollector(nil)
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Manager{
		cfg:     cfg,
		remote:  remote,
		local:   local,
		metrics: metrics,
		logger:  logger,
	}
}

// Get retrieves a value, trying the remote tier first. Returns
// (nil, false) only when both tiers miss or fail.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, bool) {
	if ValidateKey(key) != nil {
		return nil, false
	}

	if m.remote != nil {
		if value, ok := m.remote.Get(ctx, key); ok {
			m.metrics.Hit(ctx, TierRemote)
			return value, true
		}
		m.metrics.Miss(ctx, TierRemote)
	}

	if value, ok := m.local.Get(ctx, key); ok {
		m.metrics.Hit(ctx, TierLocal)
		return value, true
	}
	m.metrics.Miss(ctx, TierLocal)
	return nil, false
}

// Set writes through both tiers. The local write always happens, with
// the TTL capped at the local maximum; the remote write carries the
// full TTL and its failure does not fail the set. TTL<=0 uses the
// configured default.
func (m *Manager) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if err := ValidateKey(key); err != nil {
		m.logger.Debug(ctx, "rejecting cache write", observe.String("key", key), observe.Err(err))
		return false
	}
	ttl = m.cfg.EffectiveTTL(ttl)

	ok := m.local.Set(ctx, key, value, ttl)

	if m.remote != nil && !m.remote.Set(ctx, key, value, ttl) {
		m.logger.Debug(ctx, "remote write skipped", observe.String("key", key))
	}
	return ok
}

// Delete removes a key from both tiers: best-effort on the remote,
// unconditional on the local. Returns true if at least one tier removed
// an entry.
func (m *Manager) Delete(ctx context.Context, key string) bool {
	var removed bool
	if m.remote != nil {
		removed = m.remote.Delete(ctx, key)
	}
	if m.local.Delete(ctx, key) {
		removed = true
	}
	return removed
}

// InvalidatePattern removes every key matching pattern from both
// tiers. A trailing '*' is a wildcard; the remote tier uses its native
// scan, the local tier a full-index scan. Administrative: not meant for
// the request hot path.
func (m *Manager) InvalidatePattern(ctx context.Context, pattern string) {
	if m.remote != nil {
		for _, key := range m.remote.Scan(ctx, pattern) {
			m.remote.Delete(ctx, key)
		}
	}
	for _, key := range m.local.Scan(ctx, pattern) {
		m.local.Delete(ctx, key)
	}
	m.logger.Info(ctx, "cache pattern invalidated", observe.String("pattern", pattern))
}

// InvalidateAll flushes the remote tier and clears the local index.
func (m *Manager) InvalidateAll(ctx context.Context) {
	if m.remote != nil {
		m.remote.Flush(ctx)
	}
	m.local.Flush(ctx)
	m.logger.Info(ctx, "cache flushed")
}

// Stats returns a snapshot of tier's hit/miss counters.
func (m *Manager) Stats(tier Tier) TierStats {
	return m.metrics.Stats(tier)
}

// RemoteEnabled reports whether a remote tier is attached.
func (m *Manager) RemoteEnabled() bool {
	return m.remote != nil
}

// Close releases the remote tier's resources, if any.
func (m *Manager) Close() error {
	if closer, ok := m.remote.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
