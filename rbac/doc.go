// Package rbac exposes role and permission checks over the current session so
// UI and routing code never read session internals directly.
package rbac
