package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/auxroom/internal/domain"
	"github.com/dkeye/auxroom/internal/store"
)

// Catalog is the slice of the music catalog this service needs: resolve
// a track id to playable metadata using the room host's credentials.
type Catalog interface {
	LookupTrack(ctx context.Context, trackID, accessToken string) (domain.Track, error)
}

// Rooms owns presence, queue and chat semantics for every live room.
//
// All mutating operations on one room run under that room's entry in a
// keyed mutex, so check-then-append steps (host election) are atomic
// per room while unrelated rooms proceed in parallel. Catalog lookups
// happen before the room lock is taken; only the applied result enters
// the exclusive region.
type Rooms struct {
	Store     store.RoomStore
	Catalog   Catalog
	Registry  *Registry
	Broadcast *Broadcaster

	locks *keyedMutex
}

func NewRooms(st store.RoomStore, cat Catalog, reg *Registry) *Rooms {
	return &Rooms{
		Store:     st,
		Catalog:   cat,
		Registry:  reg,
		Broadcast: NewBroadcaster(reg),
		locks:     newKeyedMutex(),
	}
}

const createRetries = 5

// CreateRoom generates a unique code and creates the room. The creator
// is not a member yet; they join like everyone else once their
// connection is up, and being first makes them the host.
func (s *Rooms) CreateRoom(ctx context.Context, username string) (domain.RoomCode, error) {
	creator, err := domain.NewUser("", username, true)
	if err != nil {
		return "", err
	}
	for i := 0; i < createRetries; i++ {
		code := domain.GenerateRoomCode()
		_, err := s.Store.CreateRoom(ctx, code, creator)
		if errors.Is(err, domain.ErrRoomExists) {
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	return "", fmt.Errorf("could not allocate a unique room code after %d attempts", createRetries)
}

// Exists is the thin lookup the join page uses before opening a
// connection.
func (s *Rooms) Exists(ctx context.Context, code domain.RoomCode) (bool, error) {
	_, err := s.Store.FindByCode(ctx, code)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Join makes the connection a member of the room. The first member of
// an empty room becomes the host; the emptiness check and the append
// run under the room lock, so two racing first-joins cannot both win.
//
// Everyone in the room learns about the new member; only the joiner
// receives the current queue.
func (s *Rooms) Join(ctx context.Context, code domain.RoomCode, username, connID string) (domain.User, error) {
	unlock := s.locks.Lock(code)
	defer unlock()

	room, err := s.Store.FindByCode(ctx, code)
	if err != nil {
		return domain.User{}, err
	}

	user, err := domain.NewUser(connID, username, len(room.Users) == 0)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Store.AppendUser(ctx, code, user); err != nil {
		return domain.User{}, err
	}
	s.Registry.Register(connID, code)

	log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("user", username).Bool("host", user.IsHost).Msg("joined")

	// Emitted under the room lock so event order matches mutation
	// order; TrySend never blocks.
	s.Broadcast.ToRoom(code, userJoined(username))
	s.Broadcast.ToConnection(connID, queueUpdated(room.Queue))
	return user, nil
}

// Disconnect tears down whatever the connection held. Unknown
// connections are a no-op; nothing is broadcast for them. The host
// flag is never reassigned when a host disconnects — the room simply
// stays hostless.
func (s *Rooms) Disconnect(ctx context.Context, connID string) error {
	code, ok := s.Registry.RoomOf(connID)
	if !ok {
		// Registry may have missed the binding (e.g. process restart
		// with a persistent store); fall back to the store index.
		room, err := s.Store.FindByConnection(ctx, connID)
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		code = room.Code
	}

	unlock := s.locks.Lock(code)
	defer unlock()

	username, err := s.Store.RemoveUserByConnection(ctx, code, connID)
	s.Registry.Unregister(connID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil
		}
		return err
	}
	if username == "" {
		return nil
	}

	log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("user", username).Msg("left")
	s.Broadcast.ToRoom(code, userLeft(username))
	return nil
}

// AddTrack resolves the track through the catalog with the room host's
// credentials, appends it to the queue and fans out the full updated
// queue. The catalog call runs outside the room lock; a stalled lookup
// never blocks the room, and a failed lookup leaves the queue
// untouched.
func (s *Rooms) AddTrack(ctx context.Context, code domain.RoomCode, trackID, addedBy string) ([]domain.Track, error) {
	room, err := s.Store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !room.HasCredentials() {
		return nil, domain.ErrNotAuthorized
	}

	track, err := s.Catalog.LookupTrack(ctx, trackID, room.AccessToken)
	if err != nil {
		return nil, err
	}
	track.AddedBy = addedBy

	unlock := s.locks.Lock(code)
	defer unlock()

	queue, err := s.Store.AppendTrack(ctx, code, track)
	if err != nil {
		return nil, err
	}

	log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("track", trackID).Str("added_by", addedBy).Int("queue_len", len(queue)).Msg("track queued")
	s.Broadcast.ToRoom(code, queueUpdated(queue))
	return queue, nil
}

// chatTimeLayout renders "7:42 PM" style stamps for the chat pane.
const chatTimeLayout = "3:04 PM"

// SendMessage relays a chat line to the room group. Nothing is
// persisted; the server only stamps the time.
func (s *Rooms) SendMessage(code domain.RoomCode, username, text string) {
	s.Broadcast.ToRoom(code, ReceiveMessageEvent{
		Type:      "receive_message",
		Username:  username,
		Text:      text,
		Timestamp: time.Now().UTC().Format(chatTimeLayout),
	})
}

// SetCredentials attaches the host's catalog tokens to the room. Called
// from the authorization callback.
func (s *Rooms) SetCredentials(ctx context.Context, code domain.RoomCode, access, refresh string) error {
	unlock := s.locks.Lock(code)
	defer unlock()
	return s.Store.SetCredentials(ctx, code, access, refresh)
}
