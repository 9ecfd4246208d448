// Package jwt reads claims from JWT-shaped bearer tokens without verifying
// their signature.
//
// The dashboard never holds the backend's signing keys; it only needs to
// know whether a persisted token is already past its expiry so a stale
// session can be dropped at restore time instead of failing on the first
// API call. Signature verification stays a backend responsibility.
package jwt
