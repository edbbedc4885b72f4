// Package prometheus exposes goSession engine metrics through prometheus/client_golang.
//
// [Collector] implements prometheus.Collector over Engine.MetricsSnapshot; [Handler]
// serves it from a private registry. Counter names are gosession_*_total; the single
// histogram is gosession_authenticate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
