// Package middleware exposes HTTP adapters for hosts that serve the
// dashboard through Go handlers.
//
// # Guards
//
//   - [Guard]: runs every page request through the route guard and redirects.
//   - [RequirePermission]: 401 or 403 for API handlers by permission.
//   - [RequireRole]: 401 or 403 for API handlers by role.
//
// Guard injects the session snapshot it decided on into the request
// context; read it back with [SessionFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// decide access itself; all decisions come from the route guard and the
// permission table behind the Engine.
//
// # What this package must NOT do
//
//   - Read or write the session store directly.
//   - Inspect bearer tokens.
package middleware
