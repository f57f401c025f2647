// Package metric provides Prometheus metrics for streamcoordd.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: metric registry and HTTP handler
//   - collector.go: periodic poller keeping gauge metrics current
//
// Metrics include:
//
//   - Active stream cluster count, phases in flight, phase retries
//   - Leader elections, membership reconciliations, raft voter count
//   - HTTP request counts and latency histograms
//
// Metrics are exposed at /metrics in Prometheus exposition format.
package metric
