// Package ws is the duplex transport adapter: it upgrades HTTP
// requests to WebSocket connections, pumps frames in both directions
// and translates inbound commands into Rooms operations.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/auxroom/internal/app"
)

var ErrBackpressure = errors.New("backpressure")

type RoomWSController struct {
	Rooms   *app.Rooms
	Limiter *ChatRateLimiter
}

func NewRoomWSController(rooms *app.Rooms, limiter *ChatRateLimiter) *RoomWSController {
	return &RoomWSController{Rooms: rooms, Limiter: limiter}
}

// WsConn wraps one gorilla connection behind the app.Conn contract.
type WsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSocket upgrades the request and runs the connection until the
// peer goes away. Every socket gets a fresh connection id; the id is
// what membership and the registry key on.
func (ctl *RoomWSController) HandleSocket(ctx context.Context, c *gin.Context) {
	connID := uuid.NewString()
	log.Info().Str("module", "ws").Str("conn", connID).Msg("new WS connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}

	conn := &WsConn{
		conn: sock,
		send: make(chan []byte, 32),
	}
	ctl.Rooms.Registry.Bind(connID, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, connID, conn)
		ctl.disconnect(connID)
	}()
}

// disconnect runs the full transport-loss cleanup: membership, registry
// group, then the binding itself.
func (ctl *RoomWSController) disconnect(connID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ctl.Rooms.Disconnect(ctx, connID); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("conn", connID).Msg("disconnect cleanup")
	}
	ctl.Rooms.Registry.Unbind(connID)
	ctl.Limiter.Forget(connID)
}
