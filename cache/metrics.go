package cache

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Tier identifies one of the two backing stores.
type Tier string

const (
	// TierRemote is the shared remote store.
	TierRemote Tier = "remote"
	// TierLocal is the in-process fallback store.
	TierLocal Tier = "local"
)

// TierStats is a point-in-time view of one tier's counters.
type TierStats struct {
	Hits   int64
	Misses int64
}

// HitRatio returns hits/(hits+misses), or 0 before any lookups.
func (s TierStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Collector counts cache hits and misses per tier. Counters only ever
// increase within a process lifetime; the hit ratio is derived from
// them and exported as an observable gauge.
//
// The exposition format is the observability layer's concern: the
// collector only produces values on the configured meter.
type Collector struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter

	remoteHits   atomic.Int64
	remoteMisses atomic.Int64
	localHits    atomic.Int64
	localMisses  atomic.Int64
}

// NewCollector registers the cache metrics on meter. A nil meter yields
// a collector that only keeps in-process counters.
func NewCollector(meter metric.Meter) (*Collector, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}

	c := &Collector{}

	var err error
	c.hits, err = meter.Int64Counter(
		"cache.lookup.hits",
		metric.WithDescription("Cache lookups served from a tier"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	c.misses, err = meter.Int64Counter(
		"cache.lookup.misses",
		metric.WithDescription("Cache lookups a tier could not serve"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.Float64ObservableGauge(
		"cache.hit_ratio",
		metric.WithDescription("Per-tier ratio of hits to total lookups"),
		metric.WithUnit("1"),
		metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
			for _, tier := range []Tier{TierRemote, TierLocal} {
				o.Observe(c.Stats(tier).HitRatio(), metric.WithAttributes(tierAttr(tier)))
			}
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Hit records a lookup served by tier.
func (c *Collector) Hit(ctx context.Context, tier Tier) {
	hits, _ := c.counters(tier)
	hits.Add(1)
	c.hits.Add(ctx, 1, metric.WithAttributes(tierAttr(tier)))
}

// Miss records a lookup tier could not serve.
func (c *Collector) Miss(ctx context.Context, tier Tier) {
	_, misses := c.counters(tier)
	misses.Add(1)
	c.misses.Add(ctx, 1, metric.WithAttributes(tierAttr(tier)))
}

// Stats returns a snapshot of tier's counters.
func (c *Collector) Stats(tier Tier) TierStats {
	hits, misses := c.counters(tier)
	return TierStats{Hits: hits.Load(), Misses: misses.Load()}
}

func (c *Collector) counters(tier Tier) (hits, misses *atomic.Int64) {
	if tier == TierRemote {
		return &c.remoteHits, &c.remoteMisses
	}
	return &c.localHits, &c.localMisses
}

func tierAttr(tier Tier) attribute.KeyValue {
	return attribute.String("cache.tier", string(tier))
}
