package domain

import "math/rand/v2"

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLen      = 6
)

// GenerateRoomCode returns a random six-character room code. Uniqueness
// is not guaranteed here; the caller checks against the store and
// retries on collision.
func GenerateRoomCode() RoomCode {
	buf := make([]byte, codeLen)
	for i := range buf {
		buf[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return RoomCode(buf)
}
