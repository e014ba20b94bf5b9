package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/auxroom/internal/app"
	"github.com/dkeye/auxroom/internal/domain"
)

type RoomsHandler struct {
	Rooms *app.Rooms
}

type createRoomRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
}

type roomCreatedResponse struct {
	Message  string `json:"message"`
	RoomCode string `json:"room_code"`
}

// CreateRoom allocates a fresh room and hands back its code. The
// caller then joins over the socket like any other member.
func (h *RoomsHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username must be between 3 and 20 characters."})
		return
	}

	code, err := h.Rooms.CreateRoom(c.Request.Context(), req.Username)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create room."})
		return
	}

	c.JSON(http.StatusOK, roomCreatedResponse{
		Message:  "Room created successfully!",
		RoomCode: string(code),
	})
}

type joinRoomRequest struct {
	RoomCode string `json:"room_code" binding:"required,len=6"`
}

// JoinRoom only checks that the room exists; the actual join happens
// once the WebSocket is up.
func (h *RoomsHandler) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Room code is required."})
		return
	}

	exists, err := h.Rooms.Exists(c.Request.Context(), domain.RoomCode(req.RoomCode))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("room lookup")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Room lookup failed."})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found. Please check the code and try again."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Room found. You can now connect."})
}
