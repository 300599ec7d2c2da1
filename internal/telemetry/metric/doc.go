// Package metric provides Prometheus metrics for authstore.
//
// A Registry owns its own prometheus.Registry so tests and embedded
// callers never collide on the global default. All recording methods are
// safe on a nil *Registry, which disables metrics.
//
// Metrics are exposed by the agent at /metrics.
package metric
