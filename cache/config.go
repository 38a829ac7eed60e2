package cache

import "time"

// Defaults applied by Config.withDefaults.
const (
	// DefaultTTL is the TTL used when a caller supplies none.
	DefaultTTL = 5 * time.Minute

	// DefaultLocalMaxTTL caps local tier retention regardless of the
	// requested TTL, bounding memory for a store that cannot be sized
	// or managed remotely.
	DefaultLocalMaxTTL = 300 * time.Second

	// DefaultSoftLimit is the local entry count that triggers a sweep
	// of expired entries.
	DefaultSoftLimit = 1000

	// DefaultHardLimit is the local entry count that forced eviction
	// reduces the index to.
	DefaultHardLimit = 800

	// DefaultRemoteTimeout bounds a single remote round-trip.
	DefaultRemoteTimeout = 3 * time.Second
)

// Config holds the tunables consumed by the cache subsystem. The zero
// value is usable: constructors fill in defaults.
type Config struct {
	// RemoteURL is the remote store connection string
	// (redis://host:port/db). Empty means no remote tier.
	RemoteURL string

	// DisableRemote forces fallback-only mode even when RemoteURL is set.
	DisableRemote bool

	// RemoteTimeout bounds every remote round-trip.
	RemoteTimeout time.Duration

	// TTL is the default time-to-live for entries written without an
	// explicit TTL.
	TTL time.Duration

	// LocalMaxTTL caps the local tier's retention, independent of the
	// requested TTL.
	LocalMaxTTL time.Duration

	// SoftLimit and HardLimit bound the local tier's entry count; see
	// LocalStore.
	SoftLimit int
	HardLimit int
}

// withDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.RemoteTimeout <= 0 {
		c.RemoteTimeout = DefaultRemoteTimeout
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.LocalMaxTTL <= 0 {
		c.LocalMaxTTL = DefaultLocalMaxTTL
	}
	if c.SoftLimit <= 0 {
		c.SoftLimit = DefaultSoftLimit
	}
	if c.HardLimit <= 0 {
		c.HardLimit = DefaultHardLimit
	}
	return c
}

// Validate validates the configuration after defaulting.
func (c Config) Validate() error {
	if c.TTL < 0 || c.LocalMaxTTL < 0 || c.RemoteTimeout < 0 {
		return ErrNegativeTTL
	}
	if c.HardLimit > 0 && c.SoftLimit > 0 && c.HardLimit > c.SoftLimit {
		return ErrInvalidLimits
	}
	return nil
}

// EffectiveTTL resolves a per-call TTL override against the default.
func (c Config) EffectiveTTL(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return c.TTL
}
