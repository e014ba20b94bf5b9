package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/auxroom/internal/adapters/ws"
	"github.com/dkeye/auxroom/internal/app"
	"github.com/dkeye/auxroom/internal/catalog"
	"github.com/dkeye/auxroom/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, rooms *app.Rooms, spotify *catalog.SpotifyClient) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(CORS(cfg.FrontendURL))

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("AuxroomSessions", store))

	log.Info().Str("module", "adapters.http").Str("frontend", cfg.FrontendURL).Msg("router setup")

	roomsHandler := &RoomsHandler{Rooms: rooms}
	spotifyHandler := &SpotifyHandler{Rooms: rooms, Spotify: spotify, FrontendURL: cfg.FrontendURL}
	wsCtl := ws.NewRoomWSController(rooms, ws.NewChatRateLimiter(cfg.ChatBurst, cfg.ChatWindow))

	api := r.Group("/api")

	api.POST("/rooms/create", roomsHandler.CreateRoom)
	api.POST("/rooms/join", roomsHandler.JoinRoom)

	api.GET("/spotify/login/:roomCode", spotifyHandler.Login)
	api.GET("/spotify/callback", spotifyHandler.Callback)
	api.GET("/spotify/search", spotifyHandler.Search)

	api.GET("/ws/room", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Msg("ws room endpoint hit")
		wsCtl.HandleSocket(ctx, c)
	})

	return r
}
