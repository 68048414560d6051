// Package prometheus exposes goSession engine metrics as a
// prometheus.Collector.
//
// Counter names are prefixed gosession_*_total; the single histogram is
// gosession_authorize_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers choose the
//     registry, or use [Handler] for a private one.
//   - Mutate engine state.
package prometheus
