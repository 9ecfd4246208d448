package rbac

import (
	"context"
	"testing"

	"github.com/MrEthical07/payguard/permission"
	"github.com/MrEthical07/payguard/session"
)

func storeWithRole(t *testing.T, role permission.Role) *session.Store {
	t.Helper()
	store := session.NewStore(nil)
	err := store.Set(context.Background(), session.User{ID: "u-1", Role: role}, "abc", "")
	if err != nil {
		t.Fatalf("set session: %v", err)
	}
	return store
}

func TestQueriesDenyWithoutSession(t *testing.T) {
	svc := NewService(session.NewStore(nil), nil)

	for _, r := range permission.Roles() {
		if svc.HasRole(r) {
			t.Fatalf("HasRole(%s) must be false without a session", r)
		}
	}
	for _, p := range permission.Catalog() {
		if svc.HasPermission(p) {
			t.Fatalf("HasPermission(%s) must be false without a session", p)
		}
	}
	if svc.CurrentRole() != permission.RoleNone {
		t.Fatalf("expected RoleNone, got %s", svc.CurrentRole())
	}
	if svc.Permissions() != 0 {
		t.Fatalf("expected empty permission set")
	}
}

func TestNilServiceFailsClosed(t *testing.T) {
	var svc *Service
	if svc.HasRole(permission.RoleAdmin) || svc.HasPermission(permission.ViewDashboard) {
		t.Fatalf("nil service must deny")
	}
	if svc.CurrentRole() != permission.RoleNone {
		t.Fatalf("nil service must report RoleNone")
	}
}

func TestHasRoleIsSetMembership(t *testing.T) {
	svc := NewService(storeWithRole(t, permission.RoleMerchant), nil)

	if !svc.HasRole(permission.RoleMerchant) {
		t.Fatalf("expected single-role match")
	}
	if !svc.HasRole(permission.RoleAdmin, permission.RoleMerchant) {
		t.Fatalf("expected list match")
	}
	if svc.HasRole(permission.RoleAdmin, permission.RolePartnerBank) {
		t.Fatalf("unexpected match")
	}
	if svc.HasRole() {
		t.Fatalf("empty role list must not match")
	}
}

func TestHasPermissionMatchesTable(t *testing.T) {
	table := permission.DefaultTable()
	for _, role := range permission.Roles() {
		svc := NewService(storeWithRole(t, role), table)
		granted := table.PermissionsFor(role)
		for _, p := range permission.Catalog() {
			if got := svc.HasPermission(p); got != granted.Has(p) {
				t.Fatalf("role %s perm %s: got %v want %v", role, p, got, granted.Has(p))
			}
		}
		if svc.Permissions() != granted {
			t.Fatalf("role %s: Permissions() mismatch", role)
		}
	}
}

func TestQueriesFollowSessionChanges(t *testing.T) {
	store := storeWithRole(t, permission.RoleAdmin)
	svc := NewService(store, nil)

	if !svc.HasPermission(permission.ManageUsers) {
		t.Fatalf("expected admin to manage users")
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if svc.HasPermission(permission.ManageUsers) || svc.CurrentRole() != permission.RoleNone {
		t.Fatalf("expected queries to deny after clear")
	}
}

func TestHasAnyPermission(t *testing.T) {
	svc := NewService(storeWithRole(t, permission.RoleSubMerchant), nil)
	if !svc.HasAnyPermission(permission.ManageUsers, permission.ViewOwnTransactions) {
		t.Fatalf("expected one of the permissions to match")
	}
	if svc.HasAnyPermission(permission.ManageUsers, permission.ReverseTransaction) {
		t.Fatalf("expected no match")
	}
}
