// Package otel binds goSession engine metrics to OpenTelemetry observable instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter and an
// Int64ObservableGauge per cumulative latency bucket. Callers own the MeterProvider.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider.
//   - Mutate engine state.
package otel
