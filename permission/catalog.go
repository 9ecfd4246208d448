package permission

import (
	"errors"
	"strings"
)

// ErrUnknownPermission is returned when a permission name is not in the catalog.
var ErrUnknownPermission = errors.New("unknown permission")

// Permission is a single capability token. Each value doubles as its bit
// position inside a Set, so the catalog is limited to 64 entries.
type Permission uint8

const (
	ViewDashboard Permission = iota
	ViewAllMerchants
	ViewOwnMerchant
	CreateMerchant
	EditMerchant
	ViewSubMerchants
	CreateSubMerchant
	ViewAllTransactions
	ViewOwnTransactions
	ReverseTransaction
	ViewPartnerBanks
	ManagePartnerBanks
	ViewDevices
	ManageDevices
	ViewUsers
	ManageUsers
	ViewCommissions
	ConfigureCommissions
	ViewSettlements
	ExportReports

	permissionCount
)

var permissionNames = [permissionCount]string{
	ViewDashboard:        "view_dashboard",
	ViewAllMerchants:     "view_all_merchants",
	ViewOwnMerchant:      "view_own_merchant",
	CreateMerchant:       "create_merchant",
	EditMerchant:         "edit_merchant",
	ViewSubMerchants:     "view_sub_merchants",
	CreateSubMerchant:    "create_sub_merchant",
	ViewAllTransactions:  "view_all_transactions",
	ViewOwnTransactions:  "view_own_transactions",
	ReverseTransaction:   "reverse_transaction",
	ViewPartnerBanks:     "view_partner_banks",
	ManagePartnerBanks:   "manage_partner_banks",
	ViewDevices:          "view_devices",
	ManageDevices:        "manage_devices",
	ViewUsers:            "view_users",
	ManageUsers:          "manage_users",
	ViewCommissions:      "view_commissions",
	ConfigureCommissions: "configure_commissions",
	ViewSettlements:      "view_settlements",
	ExportReports:        "export_reports",
}

// Catalog returns every known permission in declaration order.
func Catalog() []Permission {
	out := make([]Permission, 0, permissionCount)
	for p := Permission(0); p < permissionCount; p++ {
		out = append(out, p)
	}
	return out
}

// ParsePermission maps a permission token such as "view_all_merchants" to its value.
func ParsePermission(name string) (Permission, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p := Permission(0); p < permissionCount; p++ {
		if permissionNames[p] == name {
			return p, nil
		}
	}
	return 0, ErrUnknownPermission
}

// Valid reports whether p is part of the catalog.
func (p Permission) Valid() bool {
	return p < permissionCount
}

func (p Permission) String() string {
	if !p.Valid() {
		return ""
	}
	return permissionNames[p]
}

func (p Permission) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, ErrUnknownPermission
	}
	return []byte(permissionNames[p]), nil
}

func (p *Permission) UnmarshalText(text []byte) error {
	parsed, err := ParsePermission(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
