package domain

// Track is one queued song. Immutable once appended: the queue has no
// reorder or remove operations, playback just walks it in order.
type Track struct {
	SpotifyTrackID string `json:"spotify_track_id"`
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	AlbumArtURL    string `json:"album_art_url"`
	DurationMs     int    `json:"duration_ms"`

	// AddedBy is the username of the member who queued it.
	AddedBy string `json:"added_by"`
}
