package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, 0, reg.Count())

	sender := newFakeSender()
	conn := reg.Add("c1", "10.0.0.1:5000", sender)
	require.NotNil(t, conn)
	assert.Equal(t, "c1", conn.ID)
	assert.Equal(t, "10.0.0.1:5000", conn.RemoteAddr)
	assert.False(t, conn.ConnectedAt.IsZero())
	assert.Empty(t, conn.Rooms(), "new connections start with an empty room set")
	assert.Equal(t, 1, reg.Count())

	got, ok := reg.Get("c1")
	require.True(t, ok)
	assert.Same(t, conn, got)

	removed, ok := reg.Remove("c1")
	require.True(t, ok)
	assert.Same(t, conn, removed)
	assert.Equal(t, 0, reg.Count())

	_, ok = reg.Get("c1")
	assert.False(t, ok)
}

func TestRegistryRemoveUnknown(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Remove("ghost")
	assert.False(t, ok, "removing an unknown id is treated as already clean")
}

func TestConnectionRoomSet(t *testing.T) {
	reg := NewRegistry()
	conn := reg.Add("c1", "10.0.0.1:5000", newFakeSender())

	conn.rooms["game_1"] = struct{}{}
	conn.rooms["user_7"] = struct{}{}

	assert.True(t, conn.InRoom("game_1"))
	assert.False(t, conn.InRoom("game_2"))
	assert.ElementsMatch(t, []string{"game_1", "user_7"}, conn.Rooms())
}
