package guard

import "github.com/MrEthical07/payguard/session"

// Decision is the outcome of evaluating a navigation.
type Decision uint8

const (
	Allow Decision = iota
	RedirectLogin
	RedirectUnauthorized
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-to-login"
	case RedirectUnauthorized:
		return "redirect-to-unauthorized"
	case RedirectHome:
		return "redirect-to-home"
	default:
		return "unknown"
	}
}

// IsRedirect reports whether the navigation must not render.
func (d Decision) IsRedirect() bool {
	return d != Allow
}

// Result explains a decision: which rule produced it, where to send the
// browser when it is a redirect, and the session snapshot it was made for.
type Result struct {
	Decision Decision
	Rule     string
	Path     string
	Location string
	Session  session.Session
}
