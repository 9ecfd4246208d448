// Package prometheus exposes payguard metrics as a Prometheus collector.
//
// [NewExporter] accepts a [payguard.Engine]; the returned [Exporter] can be
// registered on any registry or mounted directly with [Exporter.Handler].
// Counter names are prefixed payguard_*_total; the single histogram is
// payguard_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
