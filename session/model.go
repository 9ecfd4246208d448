package session

import (
	"strings"

	"github.com/MrEthical07/payguard/permission"
)

// User is the identity record returned by the auth backend at login.
type User struct {
	ID            string          `json:"id"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Email         string          `json:"email"`
	Role          permission.Role `json:"role"`
	Status        string          `json:"status"`
	MerchantID    string          `json:"merchantId,omitempty"`
	PartnerBankID string          `json:"partnerBankId,omitempty"`
}

// IsZero reports whether u carries no identity.
func (u User) IsZero() bool {
	return strings.TrimSpace(u.ID) == ""
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Session is a value snapshot of the authentication state. The zero value is
// the anonymous session.
type Session struct {
	User        User
	Token       string
	TenantScope string
}

// Authenticated reports whether the session carries both a token and a user.
func (s Session) Authenticated() bool {
	return s.Token != "" && !s.User.IsZero()
}

// Role returns the user's role, or RoleNone for the anonymous session.
func (s Session) Role() permission.Role {
	if !s.Authenticated() {
		return permission.RoleNone
	}
	return s.User.Role
}

// IsEmpty reports whether every field is unset.
func (s Session) IsEmpty() bool {
	return s.Token == "" && s.User == (User{}) && s.TenantScope == ""
}

func validate(user User, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}
	if user.IsZero() {
		return ErrMissingUser
	}
	if !user.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}
