// Package payguard is the client-side access-control core of the payments
// admin dashboard: who is logged in, what their role may see, and how their
// credentials ride along on every backend call.
//
// The package composes the leaf packages into one [Engine]:
//
//   - session: the single authoritative session with durable persistence.
//   - permission: the static role to permission table.
//   - rbac: role and permission queries over the current session.
//   - guard: navigation decisions for requested paths.
//   - signer: bearer, tenant and idempotency headers plus 401 handling.
//   - authapi: the backend login and logout endpoints.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// payguard is the public surface. It exposes [Engine], [Builder], [Config]
// and the audit and metrics value types. Audit buffering lives under
// internal/audit and is never exported directly.
//
// # What this package must NOT do
//
//   - Verify token signatures or decide authorization for the backend. The
//     backend remains the security boundary; everything here is UX gating.
//   - Cache a session outside session.Store.
//   - Import any sub-package that re-imports payguard (no import cycles).
package payguard
