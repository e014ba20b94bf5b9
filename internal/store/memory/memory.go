// Package memory keeps rooms in process memory. It is the default
// backend for development and the reference implementation the tests
// run against.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/auxroom/internal/domain"
)

type Store struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomCode]*domain.Room
	byConn map[string]domain.RoomCode
}

func New() *Store {
	return &Store{
		rooms:  make(map[domain.RoomCode]*domain.Room),
		byConn: make(map[string]domain.RoomCode),
	}
}

func (s *Store) CreateRoom(_ context.Context, code domain.RoomCode, host domain.User) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		return nil, domain.ErrRoomExists
	}
	// Membership starts empty: the creator becomes a member (and the
	// host) only when they join over a live connection.
	room := &domain.Room{
		Code:      code,
		Users:     []domain.User{},
		Queue:     []domain.Track{},
		CreatedAt: time.Now().UTC(),
	}
	s.rooms[code] = room
	log.Info().Str("module", "store.memory").Str("room", string(code)).Str("creator", host.Username).Msg("room created")
	return snapshot(room), nil
}

func (s *Store) FindByCode(_ context.Context, code domain.RoomCode) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return snapshot(room), nil
}

func (s *Store) FindByConnection(_ context.Context, connID string) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.byConn[connID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	room, ok := s.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return snapshot(room), nil
}

func (s *Store) AppendUser(_ context.Context, code domain.RoomCode, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.Users = append(room.Users, u)
	if u.ConnectionID != "" {
		s.byConn[u.ConnectionID] = code
	}
	return nil
}

func (s *Store) RemoveUserByConnection(_ context.Context, code domain.RoomCode, connID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return "", domain.ErrRoomNotFound
	}
	for i, u := range room.Users {
		if u.ConnectionID == connID {
			room.Users = append(room.Users[:i], room.Users[i+1:]...)
			delete(s.byConn, connID)
			return u.Username, nil
		}
	}
	return "", nil
}

func (s *Store) AppendTrack(_ context.Context, code domain.RoomCode, t domain.Track) ([]domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	room.Queue = append(room.Queue, t)
	out := make([]domain.Track, len(room.Queue))
	copy(out, room.Queue)
	return out, nil
}

func (s *Store) SetCredentials(_ context.Context, code domain.RoomCode, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.AccessToken = access
	room.RefreshToken = refresh
	return nil
}

// snapshot copies the room so callers never alias store-owned slices.
func snapshot(r *domain.Room) *domain.Room {
	out := *r
	out.Users = make([]domain.User, len(r.Users))
	copy(out.Users, r.Users)
	out.Queue = make([]domain.Track, len(r.Queue))
	copy(out.Queue, r.Queue)
	if r.NowPlaying != nil {
		np := *r.NowPlaying
		out.NowPlaying = &np
	}
	return &out
}
