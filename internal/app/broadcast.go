package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/auxroom/internal/domain"
)

// Broadcaster fans out event envelopes to every connection registered
// under a room code. Delivery is best-effort: a connection that cannot
// take the frame (backpressure, closing) is skipped and logged, never
// retried.
type Broadcaster struct {
	Registry *Registry
}

func NewBroadcaster(reg *Registry) *Broadcaster {
	return &Broadcaster{Registry: reg}
}

func (b *Broadcaster) ToRoom(code domain.RoomCode, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("marshal event")
		return
	}
	sent, dropped := 0, 0
	for _, conn := range b.Registry.MembersOf(code) {
		if err := conn.TrySend(data); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.broadcast").Str("room", string(code)).Int("sent_to", sent).Int("dropped", dropped).Msg("broadcast")
}

// ToConnection delivers an event to a single connection, used for the
// initial queue snapshot on join and for error frames.
func (b *Broadcaster) ToConnection(connID string, v any) {
	conn, ok := b.Registry.ConnOf(connID)
	if !ok {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("marshal event")
		return
	}
	if err := conn.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "app.broadcast").Str("conn", connID).Msg("unicast dropped")
	}
}
