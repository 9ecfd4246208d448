package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned when a token does not have the three-segment JWT shape.
var ErrNotJWT = errors.New("token is not a jwt")

// Claims is the subset of backend access-token claims the dashboard reads.
type Claims struct {
	UserID        string `json:"uid,omitempty"`
	Role          string `json:"role,omitempty"`
	PartnerBankID string `json:"pbid,omitempty"`
	jwt.RegisteredClaims
}

// Inspector decodes token claims. Leeway extends the expiry to tolerate
// clock skew between the host and the backend.
type Inspector struct {
	Leeway time.Duration
}

// NewInspector returns an Inspector with the given leeway. Negative values
// are treated as zero.
func NewInspector(leeway time.Duration) *Inspector {
	if leeway < 0 {
		leeway = 0
	}
	return &Inspector{Leeway: leeway}
}

// Claims decodes the token payload without checking the signature.
func (i *Inspector) Claims(token string) (*Claims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrNotJWT
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ExpiresAt returns the token's exp claim, if it has one.
func (i *Inspector) ExpiresAt(token string) (time.Time, bool) {
	claims, err := i.Claims(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether token carries an exp claim that lies before
// now minus the leeway. Opaque tokens and tokens without exp are never
// reported as expired.
func (i *Inspector) Expired(token string, now time.Time) bool {
	exp, ok := i.ExpiresAt(token)
	if !ok {
		return false
	}
	var leeway time.Duration
	if i != nil {
		leeway = i.Leeway
	}
	return now.After(exp.Add(leeway))
}
