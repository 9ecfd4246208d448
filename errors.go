package payguard

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the backend rejects the
	// submitted credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthUnavailable is returned by Login when the backend cannot be
	// reached or answers with something unusable.
	ErrAuthUnavailable = errors.New("auth backend unavailable")
	// ErrSessionPersistence is returned when the session could not be written
	// to or removed from durable storage.
	ErrSessionPersistence = errors.New("session persistence failed")
	// ErrEngineNotReady is returned when an operation needs a dependency the
	// engine was built without.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)
