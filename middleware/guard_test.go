package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/payguard"
	"github.com/MrEthical07/payguard/guard"
	"github.com/MrEthical07/payguard/permission"
	"github.com/MrEthical07/payguard/session"
)

type fixedAuth struct {
	user session.User
}

func (a fixedAuth) Login(context.Context, payguard.Credentials) (payguard.LoginResult, error) {
	return payguard.LoginResult{User: a.user, Token: "tok"}, nil
}

func (fixedAuth) Logout(context.Context) error { return nil }

func newEngine(t *testing.T, role permission.Role, sink payguard.AuditSink) *payguard.Engine {
	t.Helper()
	cfg := payguard.DefaultConfig()
	cfg.Audit.Enabled = sink != nil
	cfg.Audit.DropIfFull = false

	b := payguard.New().
		WithConfig(cfg).
		WithLogOutput(io.Discard).
		WithAuthenticator(fixedAuth{user: session.User{ID: "u-9", Role: role, MerchantID: "m-1"}})
	if sink != nil {
		b.WithAuditSink(sink)
	}
	e, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func login(t *testing.T, e *payguard.Engine) {
	t.Helper()
	_, err := e.Login(context.Background(), payguard.Credentials{Email: "x@y.z", Password: "pw"})
	require.NoError(t, err)
}

func okHandler(t *testing.T, wantUser string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		assert.True(t, ok, "session must be in context")
		assert.Equal(t, wantUser, sess.User.ID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestGuardRedirectsAnonymousToLoginWithNext(t *testing.T) {
	e := newEngine(t, permission.RoleMerchant, nil)
	h := Guard(e)(okHandler(t, ""))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices?page=2", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/login", loc.Path)
	assert.Equal(t, "/devices?page=2", loc.Query().Get("next"))
}

func TestGuardAllowsAndInjectsSession(t *testing.T) {
	e := newEngine(t, permission.RoleMerchant, nil)
	login(t, e)
	h := Guard(e)(okHandler(t, "u-9"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sub-merchants/17", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRoleAndAuthAreaRedirects(t *testing.T) {
	sink := payguard.NewChannelSink(8)
	e := newEngine(t, permission.RoleMerchant, sink)
	login(t, e)
	h := Guard(e)(okHandler(t, "u-9"))

	cases := map[string]string{
		"/users":       "/unauthorized",
		"/commissions": "/unauthorized",
		"/auth/login":  "/",
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.0.2.10:51234"
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, want, rec.Header().Get("Location"), path)
	}

	e.Close()
	var denied []payguard.AuditEvent
drain:
	for {
		select {
		case ev := <-sink.Events():
			if ev.Kind == payguard.AuditNavigationDenied {
				denied = append(denied, ev)
			}
		default:
			break drain
		}
	}
	require.Len(t, denied, 2)
	assert.Equal(t, "192.0.2.10", denied[0].IP)
}

type snapshotNavigator struct {
	res guard.Result
}

func (n snapshotNavigator) Navigate(context.Context, string) guard.Result { return n.res }

func TestGuardInjectsTheEvaluatedSnapshot(t *testing.T) {
	e := newEngine(t, permission.RoleMerchant, nil)
	login(t, e)

	// decided while u-9 was signed in, then logged out before the handler ran
	res := e.Navigate(context.Background(), "/devices")
	require.NoError(t, e.Logout(context.Background()))
	require.False(t, e.Authenticated())

	h := Guard(snapshotNavigator{res: res})(okHandler(t, "u-9"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardNilEngine(t *testing.T) {
	rec := httptest.NewRecorder()
	Guard(nil)(okHandler(t, "")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePermission(t *testing.T) {
	e := newEngine(t, permission.RoleSubMerchant, nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	serve := func(h http.Handler) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transactions/1/reverse", nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(RequirePermission(e, permission.ViewOwnTransactions)(next)))

	login(t, e)
	assert.Equal(t, http.StatusNoContent, serve(RequirePermission(e, permission.ViewOwnTransactions)(next)))
	assert.Equal(t, http.StatusForbidden, serve(RequirePermission(e, permission.ReverseTransaction)(next)))
	assert.Equal(t, http.StatusForbidden, serve(RequireRole(e, permission.RoleAdmin)(next)))
	assert.Equal(t, http.StatusNoContent, serve(RequireRole(e, permission.RoleMerchant, permission.RoleSubMerchant)(next)))
	assert.Equal(t, http.StatusUnauthorized, serve(RequireRole(nil, permission.RoleAdmin)(next)))
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "10.1.2.3", clientIP("10.1.2.3:443"))
	assert.Equal(t, "::1", clientIP("[::1]:8080"))
	assert.Equal(t, "pipe", clientIP("pipe"))
}
