package realtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhvanit-ts/hrms-sub001/pkg/realtime"
)

func TestRoomName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "employee:emp-1", realtime.RoomName("employee", "emp-1"))
}

func TestRegistry_RoomGetOrCreate(t *testing.T) {
	t.Parallel()

	reg := realtime.NewRegistry(10, 5)
	defer reg.Close()

	r1 := reg.Room("employee:emp-1")
	r2 := reg.Room("employee:emp-1")
	assert.Same(t, r1, r2)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_LookupDoesNotCreate(t *testing.T) {
	t.Parallel()

	reg := realtime.NewRegistry(10, 5)
	defer reg.Close()

	_, ok := reg.Lookup("employee:emp-1")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())

	created := reg.Room("employee:emp-1")
	found, ok := reg.Lookup("employee:emp-1")
	require.True(t, ok)
	assert.Same(t, created, found)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	reg := realtime.NewRegistry(2, 5)
	defer reg.Close()

	oldest := reg.Room("employee:emp-1")
	sess := oldest.Attach(context.Background())
	reg.Room("employee:emp-2")

	// Touch emp-1 so emp-2 becomes the eviction candidate.
	reg.Room("employee:emp-1")
	reg.Room("employee:emp-3")

	assert.Equal(t, 2, reg.Len())
	_, ok := reg.Lookup("employee:emp-2")
	assert.False(t, ok)
	_, ok = reg.Lookup("employee:emp-1")
	assert.True(t, ok)

	// emp-1 survived, its session is still live.
	assert.Equal(t, 1, oldest.SessionCount())
	_ = sess
}

func TestRegistry_EvictionClosesRoom(t *testing.T) {
	t.Parallel()

	reg := realtime.NewRegistry(1, 5)
	defer reg.Close()

	evicted := reg.Room("employee:emp-1")
	sess := evicted.Attach(context.Background())

	reg.Room("employee:emp-2")

	_, open := <-sess.Receive()
	assert.False(t, open)
}

func TestRegistry_Close(t *testing.T) {
	t.Parallel()

	reg := realtime.NewRegistry(10, 5)
	room := reg.Room("employee:emp-1")
	sess := room.Attach(context.Background())

	require.NoError(t, reg.Close())
	assert.Equal(t, 0, reg.Len())

	_, open := <-sess.Receive()
	assert.False(t, open)
}
