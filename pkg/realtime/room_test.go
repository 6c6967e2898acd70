package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhvanit-ts/hrms-sub001/pkg/realtime"
)

func TestRoom_PushReachesAllSessions(t *testing.T) {
	t.Parallel()

	room := realtime.NewRoom("employee:emp-1", 10)
	defer room.Close()

	s1 := room.Attach(context.Background())
	s2 := room.Attach(context.Background())
	require.Equal(t, 2, room.SessionCount())

	delivered := room.Push(realtime.Message{Kind: realtime.MessageKindNotification, Payload: "hello"})
	assert.Equal(t, 2, delivered)

	for _, s := range []*realtime.Session{s1, s2} {
		select {
		case msg := <-s.Receive():
			assert.Equal(t, realtime.MessageKindNotification, msg.Kind)
			assert.Equal(t, "hello", msg.Payload)
		case <-time.After(time.Second):
			require.Fail(t, "session did not receive message")
		}
	}
}

func TestRoom_PushWithNoSessions(t *testing.T) {
	t.Parallel()

	room := realtime.NewRoom("employee:emp-1", 10)
	defer room.Close()

	assert.Equal(t, 0, room.Push(realtime.Message{Kind: realtime.MessageKindNotification}))
}

func TestRoom_SlowSessionIsDetached(t *testing.T) {
	t.Parallel()

	room := realtime.NewRoom("employee:emp-1", 1)
	defer room.Close()

	sess := room.Attach(context.Background())
	_ = sess

	// First push fills the buffer, second push finds it full and drops.
	assert.Equal(t, 1, room.Push(realtime.Message{Kind: realtime.MessageKindUnreadCount, Payload: 1}))
	assert.Equal(t, 0, room.Push(realtime.Message{Kind: realtime.MessageKindUnreadCount, Payload: 2}))

	// The slow session is detached asynchronously.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && room.SessionCount() > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 0, room.SessionCount())
}

func TestRoom_ContextCancelDetaches(t *testing.T) {
	t.Parallel()

	room := realtime.NewRoom("employee:emp-1", 10)
	defer room.Close()

	ctx, cancel := context.WithCancel(context.Background())
	room.Attach(ctx)
	require.Equal(t, 1, room.SessionCount())

	cancel()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && room.SessionCount() > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 0, room.SessionCount())
}

func TestRoom_CloseIdempotent(t *testing.T) {
	t.Parallel()

	room := realtime.NewRoom("employee:emp-1", 10)
	sess := room.Attach(context.Background())

	require.NoError(t, room.Close())
	require.NoError(t, room.Close())

	_, open := <-sess.Receive()
	assert.False(t, open)

	// A closed room hands out closed sessions.
	late := room.Attach(context.Background())
	_, open = <-late.Receive()
	assert.False(t, open)
}
