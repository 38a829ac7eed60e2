// Package observe provides observability primitives for the cache
// subsystem: structured logging and OpenTelemetry tracer/meter setup
// with pluggable exporters.
//
// It is a pure instrumentation library: no caching, no transport, no
// I/O beyond exporter setup. Consumers wire the observer into the
// cache manager and memoized operations.
package observe
