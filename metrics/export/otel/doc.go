// Package otel binds goSession engine metrics to an OpenTelemetry Meter.
//
// Every counter becomes an Int64ObservableCounter. The authorize latency
// histogram is reported as a cumulative bucket gauge keyed by an "le"
// attribute, next to a count gauge. One callback reads
// [goSession.Engine.MetricsSnapshot] per collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
