package session

import (
	"encoding/json"
	"fmt"
)

const (
	recordVersionCurrent = 1
	// records written before versioning carry no "v" field.
	recordVersionLegacy = 0
)

// record is the flat persisted layout: {token, user, tenantScope}.
type record struct {
	Version     int    `json:"v"`
	Token       string `json:"token"`
	User        *User  `json:"user"`
	TenantScope string `json:"tenantScope,omitempty"`
}

// Encode serializes an authenticated session into its persisted record.
func Encode(s Session) ([]byte, error) {
	if err := validate(s.User, s.Token); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	user := s.User
	return json.Marshal(record{
		Version:     recordVersionCurrent,
		Token:       s.Token,
		User:        &user,
		TenantScope: s.TenantScope,
	})
}

// Decode parses a persisted record. Records missing the token or the user, or
// whose user has an unknown role, are rejected as a whole.
func Decode(data []byte) (Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Session{}, err
	}
	if rec.Version != recordVersionCurrent && rec.Version != recordVersionLegacy {
		return Session{}, ErrUnsupportedVersion
	}

	var user User
	if rec.User != nil {
		user = *rec.User
	}
	if err := validate(user, rec.Token); err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	return Session{
		User:        user,
		Token:       rec.Token,
		TenantScope: rec.TenantScope,
	}, nil
}
