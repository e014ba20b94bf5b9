package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/auxroom/internal/app"
	"github.com/dkeye/auxroom/internal/domain"
	"github.com/dkeye/auxroom/internal/store/memory"
)

// fakeConn records every frame delivered to it.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeConn) TrySend(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	f.frames = append(f.frames, buf)
	return nil
}

func (f *fakeConn) Close() {}

// events decodes the recorded frames into generic maps.
func (f *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, frame := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(frame, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) eventTypes(t *testing.T) []string {
	t.Helper()
	evs := f.events(t)
	types := make([]string, 0, len(evs))
	for _, e := range evs {
		types = append(types, e["type"].(string))
	}
	return types
}

// fakeCatalog resolves track ids from a fixed table.
type fakeCatalog struct {
	tracks map[string]domain.Track
	err    error
}

func (f *fakeCatalog) LookupTrack(_ context.Context, trackID, _ string) (domain.Track, error) {
	if f.err != nil {
		return domain.Track{}, f.err
	}
	tr, ok := f.tracks[trackID]
	if !ok {
		return domain.Track{}, domain.ErrTrackNotFound
	}
	return tr, nil
}

func newTestRooms(cat *fakeCatalog) (*app.Rooms, *memory.Store) {
	st := memory.New()
	return app.NewRooms(st, cat, app.NewRegistry()), st
}

func createRoom(t *testing.T, rooms *app.Rooms) domain.RoomCode {
	t.Helper()
	code, err := rooms.CreateRoom(context.Background(), "Alice")
	require.NoError(t, err)
	return code
}

func joinConn(t *testing.T, rooms *app.Rooms, code domain.RoomCode, name, connID string) (*fakeConn, domain.User) {
	t.Helper()
	conn := &fakeConn{}
	rooms.Registry.Bind(connID, conn)
	user, err := rooms.Join(context.Background(), code, name, connID)
	require.NoError(t, err)
	return conn, user
}

func TestJoin_FirstMemberBecomesHost(t *testing.T) {
	rooms, _ := newTestRooms(&fakeCatalog{})
	code := createRoom(t, rooms)

	aliceConn, alice := joinConn(t, rooms, code, "Alice", "c-alice")
	assert.True(t, alice.IsHost, "first joiner should be host")

	// Alice receives her own user_joined plus the initial empty queue.
	evs := aliceConn.events(t)
	require.Len(t, evs, 2)
	assert.Equal(t, "user_joined", evs[0]["type"])
	assert.Equal(t, "Alice", evs[0]["username"])
	assert.Equal(t, "queue_updated", evs[1]["type"])
	assert.Empty(t, evs[1]["queue"])

	_, bob := joinConn(t, rooms, code, "Bob", "c-bob")
	assert.False(t, bob.IsHost, "second joiner must not be host")

	// The group (Alice) saw Bob join; the queue snapshot went to Bob only.
	assert.Equal(t, []string{"user_joined", "queue_updated", "user_joined"}, aliceConn.eventTypes(t))
}

func TestJoin_UnknownRoom(t *testing.T) {
	rooms, st := newTestRooms(&fakeCatalog{})
	conn := &fakeConn{}
	rooms.Registry.Bind("c-1", conn)

	_, err := rooms.Join(context.Background(), "NOSUCH", "Alice", "c-1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Empty(t, conn.frames, "failed join must not broadcast")

	_, err = st.FindByConnection(context.Background(), "c-1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound, "failed join must not register the connection")
}

func TestJoin_ConcurrentFirstJoinsElectOneHost(t *testing.T) {
	for i := 0; i < 20; i++ {
		rooms, st := newTestRooms(&fakeCatalog{})
		code := createRoom(t, rooms)

		var wg sync.WaitGroup
		for _, connID := range []string{"c-a", "c-b", "c-c", "c-d"} {
			rooms.Registry.Bind(connID, &fakeConn{})
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := rooms.Join(context.Background(), code, "user-"+id, id)
				assert.NoError(t, err)
			}(connID)
		}
		wg.Wait()

		room, err := st.FindByCode(context.Background(), code)
		require.NoError(t, err)
		hosts := 0
		for _, u := range room.Users {
			if u.IsHost {
				hosts++
			}
		}
		assert.Equal(t, 1, hosts, "exactly one host must result from racing first joins")
	}
}

func TestDisconnect_BroadcastsUserLeftToSurvivors(t *testing.T) {
	rooms, st := newTestRooms(&fakeCatalog{})
	code := createRoom(t, rooms)

	_, _ = joinConn(t, rooms, code, "Alice", "c-alice")
	bobConn, _ := joinConn(t, rooms, code, "Bob", "c-bob")

	require.NoError(t, rooms.Disconnect(context.Background(), "c-alice"))

	evs := bobConn.events(t)
	last := evs[len(evs)-1]
	assert.Equal(t, "user_left", last["type"])
	assert.Equal(t, "Alice", last["username"])

	room, err := st.FindByCode(context.Background(), code)
	require.NoError(t, err)
	require.Len(t, room.Users, 1)
	assert.Equal(t, "Bob", room.Users[0].Username)
	assert.False(t, room.Users[0].IsHost, "host flag must not be reassigned on host disconnect")
	assert.Empty(t, room.Queue, "disconnect must not touch the queue")
}

func TestDisconnect_NonMemberIsNoOp(t *testing.T) {
	rooms, _ := newTestRooms(&fakeCatalog{})
	code := createRoom(t, rooms)
	aliceConn, _ := joinConn(t, rooms, code, "Alice", "c-alice")
	before := len(aliceConn.events(t))

	require.NoError(t, rooms.Disconnect(context.Background(), "c-ghost"))
	assert.Len(t, aliceConn.events(t), before, "no broadcast for unknown connections")
}

func TestDisconnect_FallsBackToStoreIndex(t *testing.T) {
	rooms, st := newTestRooms(&fakeCatalog{})
	code := createRoom(t, rooms)
	_, _ = joinConn(t, rooms, code, "Alice", "c-alice")

	// Simulate a registry that lost the binding (e.g. after restart
	// with a persistent store): the store index still knows the room.
	rooms.Registry.Unbind("c-alice")
	require.NoError(t, rooms.Disconnect(context.Background(), "c-alice"))

	room, err := st.FindByCode(context.Background(), code)
	require.NoError(t, err)
	assert.Empty(t, room.Users)
}

func withCredentials(t *testing.T, rooms *app.Rooms, code domain.RoomCode) {
	t.Helper()
	require.NoError(t, rooms.SetCredentials(context.Background(), code, "access-token", "refresh-token"))
}

func TestAddTrack_AppendsAndBroadcastsFullQueue(t *testing.T) {
	cat := &fakeCatalog{tracks: map[string]domain.Track{
		"trk1": {SpotifyTrackID: "trk1", Title: "X", Artist: "Someone", DurationMs: 180000},
		"trk2": {SpotifyTrackID: "trk2", Title: "Y", Artist: "Someone Else", DurationMs: 210000},
	}}
	rooms, st := newTestRooms(cat)
	code := createRoom(t, rooms)
	aliceConn, _ := joinConn(t, rooms, code, "Alice", "c-alice")

	withCredentials(t, rooms, code)

	q1, err := rooms.AddTrack(context.Background(), code, "trk1", "Alice")
	require.NoError(t, err)
	q2, err := rooms.AddTrack(context.Background(), code, "trk2", "Bob")
	require.NoError(t, err)

	require.Len(t, q1, 1)
	require.Len(t, q2, 2)
	assert.Equal(t, "trk1", q2[0].SpotifyTrackID)
	assert.Equal(t, "trk2", q2[1].SpotifyTrackID)
	assert.Equal(t, "Alice", q2[0].AddedBy)
	assert.Equal(t, "Bob", q2[1].AddedBy)

	// The broadcast queue matches the durable queue at that instant.
	room, err := st.FindByCode(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, room.Queue, q2)

	evs := aliceConn.events(t)
	last := evs[len(evs)-1]
	assert.Equal(t, "queue_updated", last["type"])
	assert.Len(t, last["queue"], 2)
}

func TestAddTrack_WithoutCredentials(t *testing.T) {
	rooms, st := newTestRooms(&fakeCatalog{tracks: map[string]domain.Track{
		"trk1": {SpotifyTrackID: "trk1", Title: "X"},
	}})
	code := createRoom(t, rooms)
	aliceConn, _ := joinConn(t, rooms, code, "Alice", "c-alice")
	before := len(aliceConn.events(t))

	_, err := rooms.AddTrack(context.Background(), code, "trk1", "Alice")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	room, ferr := st.FindByCode(context.Background(), code)
	require.NoError(t, ferr)
	assert.Empty(t, room.Queue, "unauthorized add must not mutate the queue")
	assert.Len(t, aliceConn.events(t), before, "unauthorized add must not broadcast")
}

func TestAddTrack_LookupFailureLeavesQueueUntouched(t *testing.T) {
	rooms, st := newTestRooms(&fakeCatalog{tracks: map[string]domain.Track{}})
	code := createRoom(t, rooms)
	_, _ = joinConn(t, rooms, code, "Alice", "c-alice")
	withCredentials(t, rooms, code)

	_, err := rooms.AddTrack(context.Background(), code, "missing", "Alice")
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)

	room, ferr := st.FindByCode(context.Background(), code)
	require.NoError(t, ferr)
	assert.Empty(t, room.Queue)
}

func TestAddTrack_ExpiredCredentialsSurface(t *testing.T) {
	rooms, _ := newTestRooms(&fakeCatalog{err: domain.ErrCredentialsExpired})
	code := createRoom(t, rooms)
	withCredentials(t, rooms, code)

	_, err := rooms.AddTrack(context.Background(), code, "trk1", "Alice")
	assert.ErrorIs(t, err, domain.ErrCredentialsExpired)
}

func TestAddTrack_UnknownRoom(t *testing.T) {
	rooms, _ := newTestRooms(&fakeCatalog{})
	_, err := rooms.AddTrack(context.Background(), "NOSUCH", "trk1", "Alice")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestSendMessage_RelaysToGroupWithTimestamp(t *testing.T) {
	rooms, _ := newTestRooms(&fakeCatalog{})
	code := createRoom(t, rooms)
	aliceConn, _ := joinConn(t, rooms, code, "Alice", "c-alice")
	bobConn, _ := joinConn(t, rooms, code, "Bob", "c-bob")

	rooms.SendMessage(code, "Alice", "hello")

	for _, conn := range []*fakeConn{aliceConn, bobConn} {
		evs := conn.events(t)
		last := evs[len(evs)-1]
		assert.Equal(t, "receive_message", last["type"])
		assert.Equal(t, "Alice", last["username"])
		assert.Equal(t, "hello", last["text"])
		assert.NotEmpty(t, last["timestamp"])
	}
}

func TestSendMessage_EmptyRoomReachesNoOne(t *testing.T) {
	rooms, _ := newTestRooms(&fakeCatalog{})
	code := createRoom(t, rooms)
	_, _ = joinConn(t, rooms, code, "Alice", "c-alice")

	// A connection that is bound but never joined a room carries the
	// empty room code; it must not form a broadcast group.
	lurker := &fakeConn{}
	rooms.Registry.Bind("c-lurker", lurker)

	rooms.SendMessage("", "Mallory", "hello nobody")
	assert.Empty(t, lurker.frames, "roomless connections must receive nothing")
}

func TestCreateRoom_CodeShape(t *testing.T) {
	rooms, _ := newTestRooms(&fakeCatalog{})
	code := createRoom(t, rooms)
	assert.Regexp(t, "^[A-Z0-9]{6}$", string(code))
}
