package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// TokenChecker reports whether a bearer token is known to be expired.
// Tokens the checker cannot interpret must be reported as not expired.
type TokenChecker interface {
	Expired(token string, now time.Time) bool
}

// RestoreOutcome describes what Restore found in storage.
type RestoreOutcome uint8

const (
	// RestoreEmpty means storage held nothing.
	RestoreEmpty RestoreOutcome = iota
	// RestoreOK means a complete record was loaded.
	RestoreOK
	// RestoreInvalid means the record was malformed or partial and was wiped.
	RestoreInvalid
	// RestoreExpired means the record's token had expired and was wiped.
	RestoreExpired
	// RestoreUnavailable means storage could not be read.
	RestoreUnavailable
)

func (o RestoreOutcome) String() string {
	switch o {
	case RestoreEmpty:
		return "empty"
	case RestoreOK:
		return "restored"
	case RestoreInvalid:
		return "invalid"
	case RestoreExpired:
		return "expired"
	case RestoreUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Option configures a Store.
type Option func(*Store)

// WithTokenChecker makes Restore discard records whose token has expired.
func WithTokenChecker(c TokenChecker) Option {
	return func(s *Store) {
		s.checker = c
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is the single holder of the current authentication state. Mutations
// are serialized and written through to the Persister before they become
// visible; readers always receive a value snapshot.
type Store struct {
	mu        sync.RWMutex
	current   Session
	persister Persister
	checker   TokenChecker
	now       func() time.Time
}

// NewStore creates an empty Store. A nil persister selects a MemoryPersister.
func NewStore(p Persister, opts ...Option) *Store {
	if p == nil {
		p = NewMemoryPersister()
	}
	s := &Store{
		persister: p,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set replaces the session with user, token and tenantScope in one step. The
// record is persisted first; on failure the in-memory session is unchanged.
func (s *Store) Set(ctx context.Context, user User, token, tenantScope string) error {
	next := Session{User: user, Token: token, TenantScope: tenantScope}
	data, err := Encode(next)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persister.Save(ctx, data); err != nil {
		return wrapPersistence(err)
	}
	s.current = next
	return nil
}

// Clear empties the session. Memory is always cleared; a storage failure is
// reported but leaves the caller anonymous. Clear is idempotent.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{}
	if err := s.persister.Delete(ctx); err != nil {
		return wrapPersistence(err)
	}
	return nil
}

// Revoke clears the session only while it still carries token, so a stale
// rejection cannot end a session established after the request was sent.
// It returns the session that was current and whether it was cleared.
func (s *Store) Revoke(ctx context.Context, token string) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	if prev.Token != token {
		return prev, false, nil
	}
	s.current = Session{}
	if err := s.persister.Delete(ctx); err != nil {
		return prev, true, wrapPersistence(err)
	}
	return prev, true, nil
}

// Restore loads the persisted record into memory. Any record that is not a
// complete, unexpired session leaves the Store empty; Restore never fails.
func (s *Store) Restore(ctx context.Context) RestoreOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{}

	data, err := s.persister.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoPersistedSession) {
			return RestoreEmpty
		}
		return RestoreUnavailable
	}

	sess, err := Decode(data)
	if err != nil {
		_ = s.persister.Delete(ctx)
		return RestoreInvalid
	}

	if s.checker != nil && s.checker.Expired(sess.Token, s.now()) {
		_ = s.persister.Delete(ctx)
		return RestoreExpired
	}

	s.current = sess
	return RestoreOK
}

// Get returns a snapshot of the current session.
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func wrapPersistence(err error) error {
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
