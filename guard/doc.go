// Package guard decides, for every navigation, whether the dashboard may
// render the requested page or must redirect.
//
// # Rule order
//
// Rules are evaluated top to bottom and the first rule that matches decides:
// auth-area, require-session, admin-bypass, role-restriction, default-allow.
// [Guard.Explain] reports the deciding rule so each step can be tested alone.
//
// # Route table
//
// Role restrictions are data ([Routes]), not code. [DefaultRoutes] carries the
// intended mapping; hosts may load their own with [LoadRoutesFile].
package guard
