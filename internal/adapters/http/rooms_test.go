package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/dkeye/auxroom/internal/adapters/http"
	"github.com/dkeye/auxroom/internal/app"
	"github.com/dkeye/auxroom/internal/domain"
	"github.com/dkeye/auxroom/internal/store/memory"
)

type noCatalog struct{}

func (noCatalog) LookupTrack(context.Context, string, string) (domain.Track, error) {
	return domain.Track{}, domain.ErrTrackNotFound
}

func newRouter() (*gin.Engine, *app.Rooms) {
	gin.SetMode(gin.TestMode)
	rooms := app.NewRooms(memory.New(), noCatalog{}, app.NewRegistry())
	handler := &adapter.RoomsHandler{Rooms: rooms}

	r := gin.New()
	r.POST("/api/rooms/create", handler.CreateRoom)
	r.POST("/api/rooms/join", handler.JoinRoom)
	return r, rooms
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRoom(t *testing.T) {
	r, _ := newRouter()

	w := postJSON(r, "/api/rooms/create", `{"username":"Alice"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RoomCode string `json:"room_code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Regexp(t, "^[A-Z0-9]{6}$", resp.RoomCode)
}

func TestCreateRoom_InvalidUsername(t *testing.T) {
	r, _ := newRouter()

	for _, body := range []string{`{}`, `{"username":"ab"}`, `{"username":"` + strings.Repeat("x", 21) + `"}`} {
		w := postJSON(r, "/api/rooms/create", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
}

func TestJoinRoom(t *testing.T) {
	r, rooms := newRouter()
	code, err := rooms.CreateRoom(context.Background(), "Alice")
	require.NoError(t, err)

	w := postJSON(r, "/api/rooms/join", `{"room_code":"`+string(code)+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, "/api/rooms/join", `{"room_code":"ZZZZZZ"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postJSON(r, "/api/rooms/join", `{"room_code":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
