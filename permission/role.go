package permission

import (
	"errors"
	"strings"
)

// ErrUnknownRole is returned when a role name is not part of the closed role set.
var ErrUnknownRole = errors.New("unknown role")

// Role is the closed set of dashboard actor kinds. The zero value, RoleNone,
// is the sentinel for "no authenticated actor" and never carries permissions.
type Role uint8

const (
	RoleNone Role = iota
	RoleAdmin
	RoleMerchant
	RolePartnerBank
	RoleSubMerchant

	roleCount
)

var roleNames = [roleCount]string{
	RoleNone:        "",
	RoleAdmin:       "ADMIN",
	RoleMerchant:    "MERCHANT",
	RolePartnerBank: "PARTNER_BANK",
	RoleSubMerchant: "SUB_MERCHANT",
}

// Roles returns every assignable role in declaration order.
func Roles() []Role {
	out := make([]Role, 0, roleCount-1)
	for r := RoleAdmin; r < roleCount; r++ {
		out = append(out, r)
	}
	return out
}

// ParseRole maps the wire name of a role (case-insensitive) to its value.
func ParseRole(name string) (Role, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return RoleNone, ErrUnknownRole
	}
	for r := RoleAdmin; r < roleCount; r++ {
		if roleNames[r] == name {
			return r, nil
		}
	}
	return RoleNone, ErrUnknownRole
}

// Valid reports whether r is an assignable role.
func (r Role) Valid() bool {
	return r > RoleNone && r < roleCount
}

func (r Role) String() string {
	if r >= roleCount {
		return ""
	}
	return roleNames[r]
}

// MarshalText encodes the wire name. RoleNone encodes as an empty string.
func (r Role) MarshalText() ([]byte, error) {
	if r >= roleCount {
		return nil, ErrUnknownRole
	}
	return []byte(roleNames[r]), nil
}

// UnmarshalText accepts any wire name known to ParseRole. An empty input
// decodes to RoleNone without error so partially written records can be
// detected by the caller instead of failing the whole decode.
func (r *Role) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*r = RoleNone
		return nil
	}
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
