package domain

import "time"

// RoomCode is the short shareable code users type to join a session.
type RoomCode string

// Room is the aggregate root for one listening session. Users and the
// queue are embedded documents; they never exist outside their room.
type Room struct {
	Code       RoomCode `json:"room_code"`
	Users      []User   `json:"users"`
	Queue      []Track  `json:"queue"`
	NowPlaying *Track   `json:"now_playing,omitempty"`

	// Host Spotify credentials. Attached to the room, not to any
	// connection, so the host can reconnect without re-authorizing.
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasCredentials reports whether the host completed the authorization flow.
func (r *Room) HasCredentials() bool {
	return r.AccessToken != ""
}
