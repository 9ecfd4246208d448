package payguard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MrEthical07/payguard/authapi"
	internalaudit "github.com/MrEthical07/payguard/internal/audit"
	"github.com/MrEthical07/payguard/guard"
	"github.com/MrEthical07/payguard/permission"
	"github.com/MrEthical07/payguard/rbac"
	"github.com/MrEthical07/payguard/session"
	"github.com/MrEthical07/payguard/signer"
)

var errUnauthorizedResponse = errors.New("unauthorized response")

// Credentials are the values submitted on the login form.
type Credentials = authapi.Credentials

// LoginResult is what an Authenticator returns for accepted credentials.
type LoginResult = authapi.LoginResult

// Authenticator exchanges credentials with the backend. *authapi.Client is
// the production implementation.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
	Logout(ctx context.Context) error
}

// Engine is the dashboard's access-control core. It owns the session store
// and wires it to the permission table, the route guard and the request
// signer.
type Engine struct {
	cfg     Config
	log     logrus.FieldLogger
	clock   func() time.Time
	table   *permission.Table
	store   *session.Store
	rbac    *rbac.Service
	guard   *guard.Guard
	signer  *signer.Signer
	auth    Authenticator
	metrics *Metrics
	audit   *internalaudit.Dispatcher
}

// Restore loads the persisted session, if any, into memory. It is meant to
// run once at startup before the first navigation. Records that are
// malformed or carry an expired token are discarded.
func (e *Engine) Restore(ctx context.Context) session.RestoreOutcome {
	outcome := e.store.Restore(ctx)
	sess := e.store.Get()
	log := e.log.WithField("outcome", outcome.String())

	switch outcome {
	case session.RestoreOK:
		e.metrics.Inc(MetricSessionRestored)
		log.WithFields(logrus.Fields{
			"user_id": sess.User.ID,
			"role":    sess.User.Role.String(),
		}).Info("session restored")
		e.emitAudit(ctx, AuditSessionRestored, true, sess, "", nil, nil)
	case session.RestoreEmpty:
		e.metrics.Inc(MetricSessionRestoreEmpty)
		log.Debug("no persisted session")
	case session.RestoreUnavailable:
		log.Warn("session storage unavailable, starting signed out")
		e.emitAudit(ctx, AuditSessionDiscarded, false, sess, "", nil, func() map[string]string {
			return map[string]string{"reason": outcome.String()}
		})
	default:
		e.metrics.Inc(MetricSessionDiscarded)
		log.Warn("persisted session discarded")
		e.emitAudit(ctx, AuditSessionDiscarded, true, sess, "", nil, func() map[string]string {
			return map[string]string{"reason": outcome.String()}
		})
	}
	return outcome
}

// Login exchanges creds with the backend and stores the resulting session.
// When creds carry no partner bank, a PARTNER_BANK user is scoped to their
// own bank. On any error the previous session is left untouched.
func (e *Engine) Login(ctx context.Context, creds Credentials) (session.Session, error) {
	if e.auth == nil {
		return session.Session{}, fmt.Errorf("%w: no authenticator configured", ErrEngineNotReady)
	}

	start := e.now()
	res, err := e.auth.Login(ctx, creds)
	e.metrics.Observe(MetricLoginLatency, e.now().Sub(start))
	if err != nil {
		err = mapAuthError(err)
		e.loginFailed(ctx, err)
		return session.Session{}, err
	}

	scope := strings.TrimSpace(creds.PartnerBankID)
	if scope == "" && res.User.Role == permission.RolePartnerBank {
		scope = res.User.PartnerBankID
	}

	if err := e.store.Set(ctx, res.User, res.Token, scope); err != nil {
		if errors.Is(err, session.ErrPersistence) {
			err = fmt.Errorf("%w: %w", ErrSessionPersistence, err)
		} else {
			err = fmt.Errorf("%w: %w", ErrAuthUnavailable, err)
		}
		e.loginFailed(ctx, err)
		return session.Session{}, err
	}

	sess := e.store.Get()
	e.metrics.Inc(MetricLoginSuccess)
	e.log.WithFields(logrus.Fields{
		"user_id":      sess.User.ID,
		"role":         sess.User.Role.String(),
		"tenant_scope": sess.TenantScope,
	}).Info("login succeeded")
	e.emitAudit(ctx, AuditLoginSuccess, true, sess, "", nil, func() map[string]string {
		ua := userAgentFromContext(ctx)
		if ua == "" {
			return nil
		}
		return map[string]string{"user_agent": ua}
	})
	return sess, nil
}

func (e *Engine) loginFailed(ctx context.Context, err error) {
	e.metrics.Inc(MetricLoginFailure)
	e.log.WithError(err).Warn("login failed")
	e.emitAudit(ctx, AuditLoginFailure, false, session.Session{}, "", err, nil)
}

func mapAuthError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return err
	case errors.Is(err, authapi.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, ErrAuthUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrAuthUnavailable, err)
	}
}

// Logout tells the backend to revoke the token, then clears the session.
// The backend call is best effort; the local session is cleared even when
// it fails. Only a storage failure is returned, and memory is empty even
// then.
func (e *Engine) Logout(ctx context.Context) error {
	sess := e.store.Get()

	if e.auth != nil && sess.Authenticated() {
		if err := e.auth.Logout(ctx); err != nil {
			e.log.WithError(err).WithField("user_id", sess.User.ID).Warn("backend logout failed")
			e.emitAudit(ctx, AuditLogoutCallFailure, false, sess, "", mapAuthError(err), nil)
		}
	}

	if err := e.store.Clear(ctx); err != nil {
		err = fmt.Errorf("%w: %w", ErrSessionPersistence, err)
		e.log.WithError(err).Error("session cleared in memory but not in storage")
		e.emitAudit(ctx, AuditLogout, false, sess, "", err, nil)
		return err
	}

	e.metrics.Inc(MetricLogout)
	e.log.WithField("user_id", sess.User.ID).Info("logged out")
	e.emitAudit(ctx, AuditLogout, true, sess, "", nil, nil)
	return nil
}

// Session returns a snapshot of the current session.
func (e *Engine) Session() session.Session {
	return e.store.Get()
}

// Authenticated reports whether a user is signed in.
func (e *Engine) Authenticated() bool {
	return e.store.Get().Authenticated()
}

// RBAC returns the role and permission query service over the live session.
func (e *Engine) RBAC() *rbac.Service {
	return e.rbac
}

// HasRole reports whether the current role is one of roles.
func (e *Engine) HasRole(roles ...permission.Role) bool {
	return e.rbac.HasRole(roles...)
}

// HasPermission reports whether the current role grants p.
func (e *Engine) HasPermission(p permission.Permission) bool {
	return e.rbac.HasPermission(p)
}

// Navigate decides what happens when the user requests path.
func (e *Engine) Navigate(ctx context.Context, path string) guard.Result {
	sess := e.store.Get()
	res := e.guard.Explain(sess, path)

	switch res.Decision {
	case guard.Allow:
		e.metrics.Inc(MetricNavigationAllowed)
	case guard.RedirectLogin:
		e.metrics.Inc(MetricNavigationLogin)
	case guard.RedirectHome:
		e.metrics.Inc(MetricNavigationHome)
	case guard.RedirectUnauthorized:
		e.metrics.Inc(MetricNavigationUnauthorized)
		e.emitAudit(ctx, AuditNavigationDenied, false, sess, res.Path, nil, func() map[string]string {
			return map[string]string{"rule": res.Rule}
		})
	}

	e.log.WithFields(logrus.Fields{
		"path":     res.Path,
		"decision": res.Decision.String(),
		"rule":     res.Rule,
	}).Debug("navigation evaluated")
	return res
}

// Sign attaches the current credentials to req.
func (e *Engine) Sign(req *http.Request) error {
	return e.signer.Sign(req)
}

// HTTPClient returns a client whose requests are signed and whose 401
// responses end the session. A nil base uses http.DefaultTransport.
func (e *Engine) HTTPClient(base http.RoundTripper) *http.Client {
	return e.signer.Client(base)
}

// Store returns the underlying session store.
func (e *Engine) Store() *session.Store { return e.store }

// Guard returns the route guard.
func (e *Engine) Guard() *guard.Guard { return e.guard }

// Signer returns the request signer.
func (e *Engine) Signer() *signer.Signer { return e.signer }

// Table returns the permission table.
func (e *Engine) Table() *permission.Table { return e.table }

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.Routes = e.cfg.Routes.Clone()
	return cfg
}

// Metrics returns the engine's metrics. It may be disabled but is never nil.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// MetricsSnapshot copies the current metric values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// AuditDroppedByKind breaks AuditDropped down by event kind. Kinds that
// never lost an event are absent.
func (e *Engine) AuditDroppedByKind() map[AuditKind]uint64 {
	return e.audit.DroppedByKind()
}

// Close flushes queued audit events. The session is left as is.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// signerObserver feeds signer activity into metrics, logs and audit.
type signerObserver struct {
	e *Engine
}

func (o signerObserver) RequestSigned(authenticated bool) {
	if authenticated {
		o.e.metrics.Inc(MetricRequestSigned)
		return
	}
	o.e.metrics.Inc(MetricRequestAnonymous)
}

func (o signerObserver) SessionRevoked(ctx context.Context, sess session.Session, err error) {
	o.e.metrics.Inc(MetricSessionRevoked)
	log := o.e.log.WithField("user_id", sess.User.ID)
	if err != nil {
		log.WithError(err).Error("session revoked by 401 but storage clear failed")
		o.e.emitAudit(ctx, AuditSessionRevoked, false, sess, "", err, nil)
		return
	}
	log.Warn("session revoked by 401")
	o.e.emitAudit(ctx, AuditSessionRevoked, true, sess, "", errUnauthorizedResponse, nil)
}
