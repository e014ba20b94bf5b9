// Package store defines the durable room store contract. Every
// mutation is atomic at single-room granularity; callers that need a
// wider atomic step (check-then-append) serialize per room above this
// layer.
package store

import (
	"context"

	"github.com/dkeye/auxroom/internal/domain"
)

type RoomStore interface {
	// CreateRoom creates a room under code with host pre-seeded as its
	// first member. Returns domain.ErrRoomExists if the code is taken.
	CreateRoom(ctx context.Context, code domain.RoomCode, host domain.User) (*domain.Room, error)

	// FindByCode returns domain.ErrRoomNotFound for unknown codes.
	FindByCode(ctx context.Context, code domain.RoomCode) (*domain.Room, error)

	// FindByConnection resolves the room holding a member with the
	// given connection id. Returns domain.ErrRoomNotFound if none.
	FindByConnection(ctx context.Context, connID string) (*domain.Room, error)

	AppendUser(ctx context.Context, code domain.RoomCode, u domain.User) error

	// RemoveUserByConnection removes the member bound to connID and
	// returns their username. Empty username means no such member.
	RemoveUserByConnection(ctx context.Context, code domain.RoomCode, connID string) (string, error)

	// AppendTrack appends t to the queue and returns the full queue
	// after the append.
	AppendTrack(ctx context.Context, code domain.RoomCode, t domain.Track) ([]domain.Track, error)

	SetCredentials(ctx context.Context, code domain.RoomCode, access, refresh string) error
}
