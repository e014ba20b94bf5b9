package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/auxroom/internal/app"
	"github.com/dkeye/auxroom/internal/catalog"
	"github.com/dkeye/auxroom/internal/domain"
)

type SpotifyHandler struct {
	Rooms       *app.Rooms
	Spotify     *catalog.SpotifyClient
	FrontendURL string
}

// Login sends the host's browser to the Spotify consent page. The room
// code travels in the OAuth state parameter.
func (h *SpotifyHandler) Login(c *gin.Context) {
	roomCode := c.Param("roomCode")
	c.Redirect(http.StatusFound, h.Spotify.AuthorizeURL(domain.RoomCode(roomCode)))
}

// Callback completes the OAuth flow: exchanges the code, attaches the
// tokens to the room named by state, then bounces back to the frontend
// room page.
func (h *SpotifyHandler) Callback(c *gin.Context) {
	authCode := c.Query("code")
	roomCode := domain.RoomCode(c.Query("state"))
	if authCode == "" || roomCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing code or state."})
		return
	}

	tokens, err := h.Spotify.ExchangeCode(c.Request.Context(), authCode)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(roomCode)).Msg("token exchange")
		c.JSON(http.StatusBadGateway, gin.H{"message": "Spotify authorization failed."})
		return
	}
	if err := h.Rooms.SetCredentials(c.Request.Context(), roomCode, tokens.AccessToken, tokens.RefreshToken); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(roomCode)).Msg("store credentials")
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found."})
		return
	}

	c.Redirect(http.StatusFound, h.FrontendURL+"/room/"+string(roomCode))
}

// Search proxies a catalog search using the room host's credentials.
func (h *SpotifyHandler) Search(c *gin.Context) {
	query := c.Query("query")
	roomCode := domain.RoomCode(c.Query("room_code"))
	if query == "" || roomCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Search query and room code are required."})
		return
	}

	room, err := h.Rooms.Store.FindByCode(c.Request.Context(), roomCode)
	if errors.Is(err, domain.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Room lookup failed."})
		return
	}
	if !room.HasCredentials() {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Host is not authorized."})
		return
	}

	tracks, err := h.Spotify.Search(c.Request.Context(), query, room.AccessToken)
	if errors.Is(err, domain.ErrCredentialsExpired) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Spotify token may be expired. Please have the host re-authenticate."})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(roomCode)).Msg("search")
		c.JSON(http.StatusBadGateway, gin.H{"message": "Search failed."})
		return
	}

	c.JSON(http.StatusOK, tracks)
}
