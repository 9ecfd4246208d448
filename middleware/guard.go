package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/MrEthical07/payguard"
	"github.com/MrEthical07/payguard/guard"
	"github.com/MrEthical07/payguard/permission"
	"github.com/MrEthical07/payguard/session"
)

type sessionContextKey struct{}

// SessionFromContext returns the session snapshot Guard attached to ctx.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(session.Session)
	return sess, ok
}

// Navigator is the part of *payguard.Engine Guard needs. The returned
// Result carries the session snapshot the decision was made for.
type Navigator interface {
	Navigate(ctx context.Context, path string) guard.Result
}

// Authorizer is the part of *payguard.Engine the Require helpers need.
type Authorizer interface {
	Authenticated() bool
	HasRole(roles ...permission.Role) bool
	HasPermission(p permission.Permission) bool
}

// Guard gates page requests through the route guard. Redirect decisions are
// answered with 303 See Other to the decision's location; allowed requests
// continue with the evaluated session snapshot in the request context.
func Guard(nav Navigator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if nav == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := withRequestMetadata(r)
			res := nav.Navigate(ctx, r.URL.RequestURI())
			if res.Decision.IsRedirect() {
				http.Redirect(w, r, res.Location, http.StatusSeeOther)
				return
			}

			ctx = context.WithValue(ctx, sessionContextKey{}, res.Session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission answers 401 without a session and 403 when the
// session's role lacks p. It is meant for API handlers, where a redirect is
// not useful.
func RequirePermission(a Authorizer, p permission.Permission) func(http.Handler) http.Handler {
	return requireAuth(a, func() bool { return a.HasPermission(p) })
}

// RequireRole answers 401 without a session and 403 when the session's role
// is not one of roles.
func RequireRole(a Authorizer, roles ...permission.Role) func(http.Handler) http.Handler {
	return requireAuth(a, func() bool { return a.HasRole(roles...) })
}

func requireAuth(a Authorizer, allowed func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a == nil || !a.Authenticated() {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !allowed() {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withRequestMetadata(r *http.Request) context.Context {
	ctx := r.Context()
	if ip := clientIP(r.RemoteAddr); ip != "" {
		ctx = payguard.WithClientIP(ctx, ip)
	}
	if ua := r.UserAgent(); ua != "" {
		ctx = payguard.WithUserAgent(ctx, ua)
	}
	return ctx
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
