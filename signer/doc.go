// Package signer attaches the current session's credentials to outbound
// backend API requests and turns a 401 response into a logout.
//
// Every request gets a fresh idempotency key so the backend can drop
// retried writes. The bearer and tenant headers are written only while the
// session is authenticated; after a 401 the session is cleared and
// subsequent requests go out anonymous.
//
// Status codes other than 401 are passed to the caller untouched.
package signer
