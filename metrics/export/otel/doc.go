// Package otel binds payguard counters and the login latency histogram to
// OpenTelemetry observable instruments.
//
// Related counters are grouped into one instrument and told apart by
// attribute:
//
//	payguard.login{outcome}            success | failure
//	payguard.session.restore{outcome}  restored | empty | discarded
//	payguard.navigation{decision}      guard.Decision strings
//	payguard.request{credential}       bearer | anonymous
//	payguard.audit.dropped{kind}       audit event kind labels
//
// The latency histogram is reported as payguard.login.latency.bucket{le}
// plus payguard.login.latency.count. A single callback reads the engine on
// each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
