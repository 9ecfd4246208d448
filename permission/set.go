package permission

import "math/bits"

// Set is a 64-bit permission bitmask. Bit i is set when Permission(i) is granted.
type Set uint64

// NewSet returns a Set containing perms. Values outside the catalog are ignored.
func NewSet(perms ...Permission) Set {
	var s Set
	for _, p := range perms {
		s = s.With(p)
	}
	return s
}

// Has reports whether p is in the set. Out-of-catalog values are never present.
func (s Set) Has(p Permission) bool {
	if !p.Valid() {
		return false
	}
	return s&(1<<p) != 0
}

// With returns a copy of s with p added.
func (s Set) With(p Permission) Set {
	if !p.Valid() {
		return s
	}
	return s | (1 << p)
}

// Without returns a copy of s with p removed.
func (s Set) Without(p Permission) Set {
	if !p.Valid() {
		return s
	}
	return s &^ (1 << p)
}

// Len returns the number of permissions in the set.
func (s Set) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Permissions lists the members in catalog order.
func (s Set) Permissions() []Permission {
	out := make([]Permission, 0, s.Len())
	for p := Permission(0); p < permissionCount; p++ {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Strings lists the member tokens in catalog order.
func (s Set) Strings() []string {
	perms := s.Permissions()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = p.String()
	}
	return out
}
