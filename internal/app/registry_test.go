package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/auxroom/internal/app"
)

func TestRegistry_RegisterAndRoomOf(t *testing.T) {
	reg := app.NewRegistry()
	reg.Bind("c-1", &fakeConn{})
	reg.Register("c-1", "ROOM01")

	code, ok := reg.RoomOf("c-1")
	require.True(t, ok)
	assert.Equal(t, "ROOM01", string(code))

	// Re-registering the same connection is idempotent.
	reg.Register("c-1", "ROOM01")
	code, ok = reg.RoomOf("c-1")
	require.True(t, ok)
	assert.Equal(t, "ROOM01", string(code))
}

func TestRegistry_UnregisterUnknownIsNoOp(t *testing.T) {
	reg := app.NewRegistry()
	_, ok := reg.Unregister("never-seen")
	assert.False(t, ok)
}

func TestRegistry_MembersOfIsolatesRooms(t *testing.T) {
	reg := app.NewRegistry()
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	reg.Bind("c-a", a)
	reg.Bind("c-b", b)
	reg.Bind("c-c", c)
	reg.Register("c-a", "ROOM01")
	reg.Register("c-b", "ROOM01")
	reg.Register("c-c", "ROOM02")

	assert.Len(t, reg.MembersOf("ROOM01"), 2)
	assert.Len(t, reg.MembersOf("ROOM02"), 1)
	assert.Empty(t, reg.MembersOf("ROOM03"))
}

func TestRegistry_MembersOfEmptyCodeIsEmpty(t *testing.T) {
	reg := app.NewRegistry()
	reg.Bind("c-fresh", &fakeConn{})

	reg.Bind("c-left", &fakeConn{})
	reg.Register("c-left", "ROOM01")
	reg.Unregister("c-left")

	// Fresh and just-unregistered connections both carry the empty
	// room code; neither may show up as a group member.
	assert.Empty(t, reg.MembersOf(""))
}

func TestRegistry_UnregisterReportsRoom(t *testing.T) {
	reg := app.NewRegistry()
	reg.Bind("c-1", &fakeConn{})
	reg.Register("c-1", "ROOM01")

	code, ok := reg.Unregister("c-1")
	require.True(t, ok)
	assert.Equal(t, "ROOM01", string(code))

	_, ok = reg.RoomOf("c-1")
	assert.False(t, ok)

	// The binding itself survives until Unbind.
	_, ok = reg.ConnOf("c-1")
	assert.True(t, ok)

	reg.Unbind("c-1")
	_, ok = reg.ConnOf("c-1")
	assert.False(t, ok)
}
