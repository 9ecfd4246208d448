package audit

import "fmt"

// Kind identifies what an [Event] records. It marshals to the stable
// snake_case label consumed by log pipelines.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindLoginSuccess
	KindLoginFailure
	KindLogout
	KindLogoutCallFailure
	KindSessionRestored
	KindSessionDiscarded
	KindSessionRevoked
	KindNavigationDenied

	kindCount
)

var kindLabels = [kindCount]string{
	KindUnknown:           "unknown",
	KindLoginSuccess:      "login_success",
	KindLoginFailure:      "login_failure",
	KindLogout:            "logout",
	KindLogoutCallFailure: "logout_call_failure",
	KindSessionRestored:   "session_restored",
	KindSessionDiscarded:  "session_discarded",
	KindSessionRevoked:    "session_revoked_401",
	KindNavigationDenied:  "navigation_denied",
}

// Kinds lists every known kind except KindUnknown.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindUnknown + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind maps a label back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k := KindUnknown + 1; k < kindCount; k++ {
		if kindLabels[k] == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("audit: unknown event kind %q", s)
}

func (k Kind) String() string {
	if k >= kindCount {
		return kindLabels[KindUnknown]
	}
	return kindLabels[k]
}

// Valid reports whether k is a known kind other than KindUnknown.
func (k Kind) Valid() bool { return k > KindUnknown && k < kindCount }

// Lifecycle reports whether k marks a session starting or ending. The
// dispatcher never drops or filters these.
func (k Kind) Lifecycle() bool {
	switch k {
	case KindLoginSuccess, KindLogout, KindSessionRevoked:
		return true
	}
	return false
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("audit: cannot marshal event kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
