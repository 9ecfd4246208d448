package rbac

import (
	"github.com/MrEthical07/payguard/permission"
	"github.com/MrEthical07/payguard/session"
)

// SessionSource supplies the current session snapshot. *session.Store
// satisfies it.
type SessionSource interface {
	Get() session.Session
}

// Service answers authorization questions about the current session. Every
// query fails closed: without an authenticated session the answer is "no".
type Service struct {
	sessions SessionSource
	table    *permission.Table
}

// NewService binds queries to a session source. A nil table selects
// permission.DefaultTable.
func NewService(sessions SessionSource, table *permission.Table) *Service {
	if table == nil {
		table = permission.DefaultTable()
	}
	return &Service{sessions: sessions, table: table}
}

func (s *Service) snapshot() session.Session {
	if s == nil || s.sessions == nil {
		return session.Session{}
	}
	return s.sessions.Get()
}

// HasRole reports whether the signed-in user's role is one of roles.
func (s *Service) HasRole(roles ...permission.Role) bool {
	return HasRole(s.snapshot(), roles...)
}

// HasPermission reports whether the signed-in user's role grants p.
func (s *Service) HasPermission(p permission.Permission) bool {
	if s == nil {
		return false
	}
	return HasPermission(s.table, s.snapshot(), p)
}

// HasAnyPermission reports whether at least one of perms is granted.
func (s *Service) HasAnyPermission(perms ...permission.Permission) bool {
	for _, p := range perms {
		if s.HasPermission(p) {
			return true
		}
	}
	return false
}

// CurrentRole returns the signed-in user's role, or permission.RoleNone.
func (s *Service) CurrentRole() permission.Role {
	return s.snapshot().Role()
}

// Permissions returns everything the signed-in user is granted.
func (s *Service) Permissions() permission.Set {
	if s == nil {
		return 0
	}
	return s.table.PermissionsFor(s.CurrentRole())
}

// HasRole is the snapshot form of Service.HasRole.
func HasRole(sess session.Session, roles ...permission.Role) bool {
	current := sess.Role()
	if current == permission.RoleNone {
		return false
	}
	for _, r := range roles {
		if r == current {
			return true
		}
	}
	return false
}

// HasPermission is the snapshot form of Service.HasPermission.
func HasPermission(table *permission.Table, sess session.Session, p permission.Permission) bool {
	return table.PermissionsFor(sess.Role()).Has(p)
}
