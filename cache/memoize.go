package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/tiercache/observe"
)

// Codec encodes and decodes cached values of type T. Cached payloads
// are opaque bytes; the codec is the caller's contract for what they
// mean.
type Codec[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// JSONCodec is the default Codec. It stores values as JSON.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (JSONCodec[T]) Decode(data []byte) (T, error) {
	var value T
	err := json.Unmarshal(data, &value)
	return value, err
}

// Func is a context-taking operation eligible for memoization.
type Func[T any] func(ctx context.Context, args ...any) (T, error)

// SyncFunc is a plain operation without context support.
type SyncFunc[T any] func(args ...any) (T, error)

// KeyFunc overrides key derivation for operations whose arguments do
// not stringify usefully.
type KeyFunc func(args []any) string

// Option configures a memoized operation.
type Option[T any] func(*Memoized[T])

// WithCodec replaces the default JSON codec.
func WithCodec[T any](codec Codec[T]) Option[T] {
	return func(m *Memoized[T]) { m.codec = codec }
}

// WithPrefix prepends a namespace to every derived key.
func WithPrefix[T any](prefix string) Option[T] {
	return func(m *Memoized[T]) { m.prefix = prefix }
}

// WithKeyFunc replaces BuildKey-based key derivation.
func WithKeyFunc[T any](fn KeyFunc) Option[T] {
	return func(m *Memoized[T]) { m.keyFn = fn }
}

// WithSingleFlight coalesces concurrent misses on the same key into a
// single execution. Off by default: racing callers each compute and
// store their own (presumably identical) result.
func WithSingleFlight[T any]() Option[T] {
	return func(m *Memoized[T]) { m.group = &singleflight.Group{} }
}

// WithTracer records a span per call, tagged with the operation name
// and whether the call was a hit.
func WithTracer[T any](tracer trace.Tracer) Option[T] {
	return func(m *Memoized[T]) { m.tracer = tracer }
}

// Memoized wraps an operation with cache lookups keyed by its
// arguments.
//
// The wrapped operation is assumed idempotent and side-effect free with
// respect to caching; do not wrap operations whose re-execution callers
// depend on. Errors are never cached, and cache trouble (encode,
// decode, tier failure) never fails the call: the operation's own
// result is always returned.
type Memoized[T any] struct {
	manager *Manager
	op      string
	prefix  string
	ttl     time.Duration
	codec   Codec[T]
	fn      Func[T]
	keyFn   KeyFunc
	group   *singleflight.Group
	tracer  trace.Tracer
}

// Memoize wraps a context-taking operation. TTL<=0 uses the manager's
// default.
func Memoize[T any](m *Manager, op string, ttl time.Duration, fn Func[T], opts ...Option[T]) *Memoized[T] {
	mz := &Memoized[T]{
		manager: m,
		op:      op,
		ttl:     ttl,
		codec:   JSONCodec[T]{},
		fn:      fn,
	}
	for _, opt := range opts {
		opt(mz)
	}
	return mz
}

// SyncMemoized is the wrapper produced for plain operations. Callers
// invoke it exactly as they would the unwrapped function.
type SyncMemoized[T any] struct {
	inner *Memoized[T]
}

// MemoizeSync wraps a plain operation. Cache round-trips run against
// the background context, so the wrapper keeps the operation's shape.
func MemoizeSync[T any](m *Manager, op string, ttl time.Duration, fn SyncFunc[T], opts ...Option[T]) *SyncMemoized[T] {
	inner := Memoize(m, op, ttl, func(_ context.Context, args ...any) (T, error) {
		return fn(args...)
	}, opts...)
	return &SyncMemoized[T]{inner: inner}
}

// Call invokes the wrapped plain operation through the cache.
func (s *SyncMemoized[T]) Call(args ...any) (T, error) {
	return s.inner.Call(context.Background(), args...)
}

// Call invokes the operation through the cache: a hit returns the
// cached value without executing the operation; a miss executes it and
// stores the result.
func (mz *Memoized[T]) Call(ctx context.Context, args ...any) (T, error) {
	if mz.fn == nil {
		var zero T
		return zero, ErrNilOperation
	}

	key := mz.key(args)

	var span trace.Span
	if mz.tracer != nil {
		ctx, span = mz.tracer.Start(ctx, "cache.call",
			trace.WithAttributes(attribute.String("cache.operation", mz.op)))
		defer span.End()
	}

	if data, ok := mz.manager.Get(ctx, key); ok {
		value, err := mz.codec.Decode(data)
		if err == nil {
			if span != nil {
				span.SetAttributes(attribute.Bool("cache.hit", true))
			}
			return value, nil
		}
		// Undecodable entry: drop it and recompute.
		mz.manager.logger.Warn(ctx, "dropping undecodable cache entry",
			observe.String("operation", mz.op), observe.String("key", key), observe.Err(err))
		mz.manager.Delete(ctx, key)
	}
	if span != nil {
		span.SetAttributes(attribute.Bool("cache.hit", false))
	}

	if mz.group != nil {
		result, err, _ := mz.group.Do(key, func() (any, error) {
			return mz.execute(ctx, key, args)
		})
		if err != nil {
			var zero T
			return zero, err
		}
		return result.(T), nil
	}
	return mz.execute(ctx, key, args)
}

func (mz *Memoized[T]) key(args []any) string {
	if mz.keyFn != nil {
		return mz.keyFn(args)
	}
	return BuildKey(mz.prefix, mz.op, args, nil)
}

// execute runs the operation and best-effort caches a successful
// result. Errors are not cached, and an unencodable result skips the
// write without failing the call.
func (mz *Memoized[T]) execute(ctx context.Context, key string, args []any) (T, error) {
	value, err := mz.fn(ctx, args...)
	if err != nil {
		return value, err
	}

	data, encErr := mz.codec.Encode(value)
	if encErr != nil {
		mz.manager.logger.Debug(ctx, "skipping cache write for unencodable value",
			observe.String("operation", mz.op), observe.Err(encErr))
		return value, nil
	}

	mz.manager.Set(ctx, key, data, mz.ttl)
	return value, nil
}
