package session

import "errors"

var (
	// ErrInvalidSession wraps every reason a session cannot be stored.
	ErrInvalidSession = errors.New("invalid session")
	// ErrMissingToken is returned when a session has a user but no token.
	ErrMissingToken = errors.New("missing token")
	// ErrMissingUser is returned when a session has a token but no user.
	ErrMissingUser = errors.New("missing user")
	// ErrInvalidRole is returned when the user's role is outside the role set.
	ErrInvalidRole = errors.New("unknown role")
	// ErrPersistence is returned when the backing storage rejects a read or write.
	ErrPersistence = errors.New("session persistence failed")
	// ErrNoPersistedSession is returned by a Persister with nothing stored.
	ErrNoPersistedSession = errors.New("no persisted session")
	// ErrUnsupportedVersion is returned when a stored record has an unknown layout version.
	ErrUnsupportedVersion = errors.New("unsupported session record version")
)
