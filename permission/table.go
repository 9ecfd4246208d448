package permission

// Table maps each role to its granted permissions. A Table is immutable after
// construction and safe for concurrent use.
type Table struct {
	grants [roleCount]Set
}

// defaultGrants is indexed by Role; the array length ties it to the role
// enumeration, and TestDefaultTableCoversEveryRole fails when a new role
// is declared without an entry here.
var defaultGrants = [roleCount][]Permission{
	RoleNone: nil,
	RoleAdmin: {
		ViewDashboard,
		ViewAllMerchants, CreateMerchant, EditMerchant,
		ViewSubMerchants, CreateSubMerchant,
		ViewAllTransactions, ReverseTransaction,
		ViewPartnerBanks, ManagePartnerBanks,
		ViewDevices, ManageDevices,
		ViewUsers, ManageUsers,
		ViewCommissions, ConfigureCommissions,
		ViewSettlements, ExportReports,
	},
	RoleMerchant: {
		ViewDashboard,
		ViewOwnMerchant,
		ViewSubMerchants, CreateSubMerchant,
		ViewOwnTransactions,
		ViewDevices,
		ViewSettlements, ExportReports,
	},
	RolePartnerBank: {
		ViewDashboard,
		ViewAllMerchants, CreateMerchant, EditMerchant,
		ViewSubMerchants,
		ViewAllTransactions, ReverseTransaction,
		ViewDevices, ManageDevices,
		ViewCommissions, ConfigureCommissions,
		ViewSettlements, ExportReports,
	},
	RoleSubMerchant: {
		ViewDashboard,
		ViewOwnMerchant,
		ViewOwnTransactions,
	},
}

var defaultTable = buildTable(defaultGrants)

func buildTable(src [roleCount][]Permission) *Table {
	t := &Table{}
	for r := RoleAdmin; r < roleCount; r++ {
		t.grants[r] = NewSet(src[r]...)
	}
	return t
}

// DefaultTable returns the process-wide permission table.
func DefaultTable() *Table {
	return defaultTable
}

// PermissionsFor returns the permissions granted to role. Unknown roles and
// RoleNone yield an empty set.
func (t *Table) PermissionsFor(role Role) Set {
	if t == nil || !role.Valid() {
		return 0
	}
	return t.grants[role]
}

// Allows reports whether role is granted p.
func (t *Table) Allows(role Role, p Permission) bool {
	return t.PermissionsFor(role).Has(p)
}

// RolesWith lists the roles that hold p, in declaration order.
func (t *Table) RolesWith(p Permission) []Role {
	var out []Role
	for _, r := range Roles() {
		if t.Allows(r, p) {
			out = append(out, r)
		}
	}
	return out
}
