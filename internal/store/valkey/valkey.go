// Package valkey persists rooms as JSON documents in a Valkey server.
//
// Layout: room documents live under "room:<CODE>", and every live
// connection id has a reverse-index key "conn:<id>" pointing at its
// room code. Read-modify-write cycles on one document are guarded by a
// per-code in-process mutex; one coordinating process owns a room's
// live connections, so no cross-process locking is needed.
package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/valkey-io/valkey-go"

	"github.com/dkeye/auxroom/internal/domain"
)

type Store struct {
	client valkey.Client

	mu    sync.Mutex
	locks map[domain.RoomCode]*sync.Mutex
}

func New(addr string) (*Store, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("connect valkey: %w", err)
	}
	log.Info().Str("module", "store.valkey").Str("addr", addr).Msg("connected")
	return &Store{client: client, locks: make(map[domain.RoomCode]*sync.Mutex)}, nil
}

func (s *Store) Close() { s.client.Close() }

func roomKey(code domain.RoomCode) string { return "room:" + string(code) }
func connKey(connID string) string        { return "conn:" + connID }

func (s *Store) lock(code domain.RoomCode) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[code]
	if !ok {
		l = &sync.Mutex{}
		s.locks[code] = l
	}
	return l
}

func (s *Store) CreateRoom(ctx context.Context, code domain.RoomCode, host domain.User) (*domain.Room, error) {
	room := &domain.Room{
		Code:      code,
		Users:     []domain.User{},
		Queue:     []domain.Track{},
		CreatedAt: time.Now().UTC(),
	}
	doc, err := json.Marshal(room)
	if err != nil {
		return nil, fmt.Errorf("encode room: %w", err)
	}
	// SET NX is the create-if-absent primitive.
	resp := s.client.Do(ctx, s.client.B().Set().Key(roomKey(code)).Value(string(doc)).Nx().Build())
	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, domain.ErrRoomExists
		}
		return nil, fmt.Errorf("create room: %w", err)
	}
	log.Info().Str("module", "store.valkey").Str("room", string(code)).Str("creator", host.Username).Msg("room created")
	return room, nil
}

func (s *Store) FindByCode(ctx context.Context, code domain.RoomCode) (*domain.Room, error) {
	doc, err := s.client.Do(ctx, s.client.B().Get().Key(roomKey(code)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	var room domain.Room
	if err := json.Unmarshal(doc, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return &room, nil
}

func (s *Store) FindByConnection(ctx context.Context, connID string) (*domain.Room, error) {
	code, err := s.client.Do(ctx, s.client.B().Get().Key(connKey(connID)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("get conn index: %w", err)
	}
	return s.FindByCode(ctx, domain.RoomCode(code))
}

func (s *Store) AppendUser(ctx context.Context, code domain.RoomCode, u domain.User) error {
	err := s.update(ctx, code, func(room *domain.Room) {
		room.Users = append(room.Users, u)
	})
	if err != nil {
		return err
	}
	if u.ConnectionID != "" {
		if err := s.client.Do(ctx, s.client.B().Set().Key(connKey(u.ConnectionID)).Value(string(code)).Build()).Error(); err != nil {
			return fmt.Errorf("set conn index: %w", err)
		}
	}
	return nil
}

func (s *Store) RemoveUserByConnection(ctx context.Context, code domain.RoomCode, connID string) (string, error) {
	var username string
	err := s.update(ctx, code, func(room *domain.Room) {
		for i, u := range room.Users {
			if u.ConnectionID == connID {
				username = u.Username
				room.Users = append(room.Users[:i], room.Users[i+1:]...)
				return
			}
		}
	})
	if err != nil {
		return "", err
	}
	if username != "" {
		if err := s.client.Do(ctx, s.client.B().Del().Key(connKey(connID)).Build()).Error(); err != nil {
			return "", fmt.Errorf("del conn index: %w", err)
		}
	}
	return username, nil
}

func (s *Store) AppendTrack(ctx context.Context, code domain.RoomCode, t domain.Track) ([]domain.Track, error) {
	var queue []domain.Track
	err := s.update(ctx, code, func(room *domain.Room) {
		room.Queue = append(room.Queue, t)
		queue = make([]domain.Track, len(room.Queue))
		copy(queue, room.Queue)
	})
	if err != nil {
		return nil, err
	}
	return queue, nil
}

func (s *Store) SetCredentials(ctx context.Context, code domain.RoomCode, access, refresh string) error {
	return s.update(ctx, code, func(room *domain.Room) {
		room.AccessToken = access
		room.RefreshToken = refresh
	})
}

// update runs a read-modify-write cycle on one room document under its
// per-code mutex.
func (s *Store) update(ctx context.Context, code domain.RoomCode, mutate func(*domain.Room)) error {
	l := s.lock(code)
	l.Lock()
	defer l.Unlock()

	room, err := s.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	mutate(room)
	doc, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", code, err)
	}
	if err := s.client.Do(ctx, s.client.B().Set().Key(roomKey(code)).Value(string(doc)).Build()).Error(); err != nil {
		return fmt.Errorf("write room %s: %w", code, err)
	}
	return nil
}
