package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/auxroom/internal/domain"
)

// Conn is the transport endpoint the registry fans out to.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend([]byte) error
	Close()
}

type connEntry struct {
	Room domain.RoomCode
	Conn Conn
}

// Registry is the bidirectional map between live connection ids and
// (room code, transport endpoint). Safe for concurrent use from
// arbitrary connection goroutines.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*connEntry)}
}

// Bind associates a transport endpoint with a connection id. Must
// happen before the connection can join a room.
func (r *Registry) Bind(connID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = &connEntry{Conn: conn}
	log.Info().Str("module", "app.registry").Str("conn", connID).Msg("bound connection")
}

// Register places a bound connection into a room group. Idempotent per
// connection: re-registering just updates the room code.
func (r *Registry) Register(connID string, code domain.RoomCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[connID]; ok {
		e.Room = code
		log.Info().Str("module", "app.registry").Str("conn", connID).Str("room", string(code)).Msg("registered")
	}
}

// Unregister removes the connection from its room group and reports
// which room it was in. No-op for unknown connections.
func (r *Registry) Unregister(connID string) (domain.RoomCode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[connID]
	if !ok || e.Room == "" {
		return "", false
	}
	code := e.Room
	e.Room = ""
	log.Info().Str("module", "app.registry").Str("conn", connID).Str("room", string(code)).Msg("unregistered")
	return code, true
}

func (r *Registry) RoomOf(connID string) (domain.RoomCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[connID]
	if !ok || e.Room == "" {
		return "", false
	}
	return e.Room, true
}

func (r *Registry) ConnOf(connID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

// MembersOf snapshots the endpoints currently registered under a room
// code. The empty code is no room: bound-but-unregistered connections
// carry it, so it must never act as a group.
func (r *Registry) MembersOf(code domain.RoomCode) []Conn {
	if code == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.conns))
	for _, e := range r.conns {
		if e.Room == code && e.Conn != nil {
			out = append(out, e.Conn)
		}
	}
	return out
}

// Unbind drops the connection entirely, called when the transport is
// gone.
func (r *Registry) Unbind(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
	log.Info().Str("module", "app.registry").Str("conn", connID).Msg("unbound connection")
}
