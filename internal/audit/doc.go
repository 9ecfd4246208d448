// Package audit implements async event dispatching for session and navigation
// events.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, function, no-op).
//   - [Dispatcher]: single-worker relay; drop-if-full never applies to lifecycle kinds.
//   - [Event]: structured record with timestamp, kind, user, role, tenant scope, path.
//   - [Kind]: typed event label; [Kind.Lifecycle] marks session start and end.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the Engine owns that.
//
// # What this package must NOT do
//
//   - Filter events beyond the kinds listed in [Config.Exclude].
//   - Import payguard or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
