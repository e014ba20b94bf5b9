package domain

import "errors"

var (
	// ErrRoomNotFound: the code does not resolve to a live room.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomExists: create-if-absent hit an already used code.
	ErrRoomExists = errors.New("room code already in use")

	// ErrNotAuthorized: a catalog-backed operation was attempted
	// before the host completed the authorization flow.
	ErrNotAuthorized = errors.New("host is not authorized")

	// ErrCredentialsExpired: the catalog rejected the room's stored
	// credentials. Retryable once the host re-authorizes.
	ErrCredentialsExpired = errors.New("host credentials expired")

	// ErrTrackNotFound: the catalog has no track for the given id.
	ErrTrackNotFound = errors.New("track not found")
)
