package signer

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MrEthical07/payguard/session"
)

// Default header names.
const (
	HeaderAuthorization  = "Authorization"
	HeaderTenant         = "X-Partner-Bank-Id"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// ErrNilRequest is returned by Sign when given no request.
var ErrNilRequest = errors.New("nil request")

// SessionStore is the part of session.Store the signer reads and, on a 401,
// revokes.
type SessionStore interface {
	Get() session.Session
	Revoke(ctx context.Context, token string) (session.Session, bool, error)
}

// Redirector sends the user to the login page. It is called after the
// session has been cleared.
type Redirector interface {
	RedirectToLogin(ctx context.Context)
}

// RedirectorFunc adapts a function to Redirector.
type RedirectorFunc func(ctx context.Context)

func (f RedirectorFunc) RedirectToLogin(ctx context.Context) { f(ctx) }

// Observer is notified of signer activity. Implementations must not block.
type Observer interface {
	RequestSigned(authenticated bool)
	SessionRevoked(ctx context.Context, sess session.Session, err error)
}

// Config names the headers the signer writes.
type Config struct {
	TenantHeader         string
	IdempotencyKeyHeader string
}

// DefaultConfig returns the backend's expected header names.
func DefaultConfig() Config {
	return Config{
		TenantHeader:         HeaderTenant,
		IdempotencyKeyHeader: HeaderIdempotencyKey,
	}
}

// Signer attaches credentials to outbound API requests and reacts to 401
// responses. The session is read fresh on every call; nothing is cached
// between requests.
type Signer struct {
	cfg        Config
	store      SessionStore
	redirector Redirector
	observer   Observer
	newKey     func() string
}

// Option configures a Signer.
type Option func(*Signer)

// WithRedirector sets what happens after a 401 clears the session.
func WithRedirector(r Redirector) Option {
	return func(s *Signer) { s.redirector = r }
}

// WithObserver registers an activity observer.
func WithObserver(o Observer) Option {
	return func(s *Signer) { s.observer = o }
}

// WithKeyGenerator overrides idempotency key generation.
func WithKeyGenerator(gen func() string) Option {
	return func(s *Signer) {
		if gen != nil {
			s.newKey = gen
		}
	}
}

// New creates a Signer. Empty header names in cfg fall back to the defaults.
func New(store SessionStore, cfg Config, opts ...Option) *Signer {
	def := DefaultConfig()
	if cfg.TenantHeader == "" {
		cfg.TenantHeader = def.TenantHeader
	}
	if cfg.IdempotencyKeyHeader == "" {
		cfg.IdempotencyKeyHeader = def.IdempotencyKeyHeader
	}
	s := &Signer{
		cfg:    cfg,
		store:  store,
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign sets the bearer, tenant and idempotency headers on req. Credential
// headers already present on req are replaced or removed so they always
// reflect the current session.
func (s *Signer) Sign(req *http.Request) error {
	if req == nil {
		return ErrNilRequest
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	sess := s.store.Get()
	authenticated := sess.Authenticated()

	if authenticated {
		req.Header.Set(HeaderAuthorization, "Bearer "+sess.Token)
	} else {
		req.Header.Del(HeaderAuthorization)
	}

	if authenticated && sess.TenantScope != "" {
		req.Header.Set(s.cfg.TenantHeader, sess.TenantScope)
	} else {
		req.Header.Del(s.cfg.TenantHeader)
	}

	req.Header.Set(s.cfg.IdempotencyKeyHeader, s.newKey())

	if s.observer != nil {
		s.observer.RequestSigned(authenticated)
	}
	return nil
}

// OnResponse inspects a response. A 401 clears the session when the
// rejected request carried the session's current bearer; a rejection of a
// request signed with an older token leaves a newer session alone. Without
// resp.Request the current session is assumed. When the cleared session was
// authenticated the observer is told and the login redirect fires. The
// response itself is returned unchanged in every case.
func (s *Signer) OnResponse(ctx context.Context, resp *http.Response) *http.Response {
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return resp
	}
	token := s.store.Get().Token
	if resp.Request != nil {
		token = BearerToken(resp.Request.Header)
	}
	s.revoke(ctx, token)
	return resp
}

func (s *Signer) revoke(ctx context.Context, token string) {
	if ctx == nil {
		ctx = context.Background()
	}
	revoked, cleared, err := s.store.Revoke(ctx, token)
	if !cleared || !revoked.Authenticated() {
		return
	}
	if s.observer != nil {
		s.observer.SessionRevoked(ctx, revoked, err)
	}
	if s.redirector != nil {
		s.redirector.RedirectToLogin(ctx)
	}
}

// BearerToken returns the token of a "Bearer" Authorization header, or "".
func BearerToken(h http.Header) string {
	const prefix = "Bearer "
	v := h.Get(HeaderAuthorization)
	if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(v[len(prefix):])
}

// Transport wraps an http.RoundTripper so every request is signed and every
// response passes through OnResponse.
type Transport struct {
	Signer *Signer
	Base   http.RoundTripper
}

// NewTransport wraps base (http.DefaultTransport when nil).
func (s *Signer) NewTransport(base http.RoundTripper) *Transport {
	return &Transport{Signer: s, Base: base}
}

// Client returns an http.Client using a signing transport over base.
func (s *Signer) Client(base http.RoundTripper) *http.Client {
	return &http.Client{Transport: s.NewTransport(base)}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// RoundTrippers must not modify the caller's request.
	signed := req.Clone(req.Context())
	if err := t.Signer.Sign(signed); err != nil {
		return nil, err
	}

	resp, err := base.RoundTrip(signed)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.Signer.revoke(req.Context(), BearerToken(signed.Header))
	}
	return resp, nil
}
