// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

// User is one member of a room. It lives only inside the room's
// membership list: created on join, removed on leave or disconnect.
type User struct {
	// ConnectionID identifies the live duplex connection this member
	// joined through. Unique among currently connected members.
	ConnectionID string `json:"connection_id"`
	Username     string `json:"username"`

	// IsHost marks the room's creator. Set when the first member joins
	// an empty room and never reassigned afterwards.
	IsHost bool `json:"is_host"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(connID, username string, isHost bool) (User, error) {
	if len(username) == 0 {
		return User{}, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return User{}, ErrUsernameTooLong
	}
	return User{ConnectionID: connID, Username: username, IsHost: isHost}, nil
}
