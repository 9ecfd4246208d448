// Package permission defines the closed role and permission enumerations of the
// payments dashboard and the static table that maps one onto the other.
//
// # Sets
//
// Permissions are stored as a 64-bit mask ([Set]); a permission's enum value is
// its bit position. The catalog is fixed at compile time, so bit positions are
// stable across processes and releases.
//
// # Fail-closed
//
// [Table.PermissionsFor] returns an empty set for [RoleNone] and for any value
// outside the role enumeration. Lookups never panic and never return an error.
//
// # What this package must NOT do
//
//   - Read session state or perform I/O.
//   - Allow mutation of a [Table] after construction.
package permission
