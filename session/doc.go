// Package session holds the dashboard's authentication state: the signed-in
// user, the bearer token and the optional partner-bank tenant scope.
//
// # Lifecycle
//
// A [Store] starts empty, is populated from storage by [Store.Restore], and is
// then changed only by [Store.Set] and [Store.Clear]. The token is present if
// and only if the user is present; Set rejects anything else and Restore
// discards partial records.
//
// # Persistence
//
// The persisted layout is a flat JSON record {v, token, user, tenantScope}.
// Backends: [MemoryPersister], [FilePersister] and [RedisPersister].
//
// # What this package must NOT do
//
//   - Call the auth backend or any other network service except its Persister.
//   - Surface restore failures to callers as errors.
package session
