package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/auxroom/internal/adapters/http"
	"github.com/dkeye/auxroom/internal/app"
	"github.com/dkeye/auxroom/internal/catalog"
	"github.com/dkeye/auxroom/internal/config"
	"github.com/dkeye/auxroom/internal/store"
	"github.com/dkeye/auxroom/internal/store/memory"
	"github.com/dkeye/auxroom/internal/store/valkey"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	var roomStore store.RoomStore
	switch cfg.Store {
	case "valkey":
		vs, err := valkey.New(cfg.ValkeyAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to valkey")
		}
		defer vs.Close()
		roomStore = vs
	default:
		roomStore = memory.New()
	}

	spotify := catalog.NewSpotifyClient(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.RedirectURI)
	registry := app.NewRegistry()
	rooms := app.NewRooms(roomStore, spotify, registry)

	r := router.SetupRouter(ctx, cfg, rooms, spotify)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.Store).Msg("auxroom server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
