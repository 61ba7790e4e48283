package models

import "time"

// User holds display information for an authenticated identity.
// The ID is the subject of the identity token; users are upserted from the
// token claims whenever they act, so no registration step exists here.
type User struct {
	// ID is the identity subject.
	ID string

	// DisplayName is the human-readable name shown in balances and reports.
	DisplayName string

	// CreatedAt is the Unix timestamp when the user was first seen.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last display name change.
	UpdatedAt int64
}

// NewUser creates a user with timestamps set to now.
func NewUser(id, displayName string) *User {
	now := time.Now().Unix()
	return &User{
		ID:          id,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
