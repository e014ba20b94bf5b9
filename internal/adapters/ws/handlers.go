package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/auxroom/internal/domain"
)

func (ctl *RoomWSController) handleJoin(
	ctx context.Context,
	connID string,
	conn *WsConn,
	data []byte,
) {
	type joinPayload struct {
		Type     string `json:"type"`
		Room     string `json:"room"`
		Username string `json:"username"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Room == "" || p.Username == "" {
		ctl.sendError(conn, "bad_payload")
		return
	}

	log.Info().Str("module", "ws").Str("conn", connID).Str("room", p.Room).Str("username", p.Username).Msg("join")
	_, err := ctl.Rooms.Join(ctx, domain.RoomCode(p.Room), p.Username, connID)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		ctl.sendError(conn, "room_not_found")
	case errors.Is(err, domain.ErrUsernameEmpty), errors.Is(err, domain.ErrUsernameTooLong):
		ctl.sendError(conn, "invalid_name")
	case err != nil:
		log.Error().Err(err).Str("module", "ws").Str("conn", connID).Msg("join failed")
		ctl.sendError(conn, "internal")
	}
}

func (ctl *RoomWSController) handleChat(
	connID string,
	conn *WsConn,
	data []byte,
) {
	type chatPayload struct {
		Type     string `json:"type"`
		Room     string `json:"room"`
		Username string `json:"username"`
		Text     string `json:"text"`
	}
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad chat payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Room == "" {
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Text == "" {
		return
	}
	if !ctl.Limiter.Allow(connID) {
		ctl.sendError(conn, "rate_limited")
		return
	}
	ctl.Rooms.SendMessage(domain.RoomCode(p.Room), p.Username, p.Text)
}

func (ctl *RoomWSController) handleAddTrack(
	ctx context.Context,
	connID string,
	conn *WsConn,
	data []byte,
) {
	type addTrackPayload struct {
		Type     string `json:"type"`
		Room     string `json:"room"`
		TrackID  string `json:"track_id"`
		Username string `json:"username"`
	}
	var p addTrackPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad add_track payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Room == "" || p.TrackID == "" {
		ctl.sendError(conn, "bad_payload")
		return
	}

	_, err := ctl.Rooms.AddTrack(ctx, domain.RoomCode(p.Room), p.TrackID, p.Username)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		ctl.sendError(conn, "room_not_found")
	case errors.Is(err, domain.ErrNotAuthorized), errors.Is(err, domain.ErrCredentialsExpired):
		ctl.sendError(conn, "not_authorized")
	case errors.Is(err, domain.ErrTrackNotFound):
		ctl.sendError(conn, "track_not_found")
	case err != nil:
		log.Error().Err(err).Str("module", "ws").Str("conn", connID).Msg("add_track failed")
		ctl.sendError(conn, "internal")
	}
}

func (ctl *RoomWSController) handlePing(conn *WsConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}
