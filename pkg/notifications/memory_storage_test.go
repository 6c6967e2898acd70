package notifications_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhvanit-ts/hrms-sub001/pkg/notifications"
)

func candidateNotification(receiverID, aggKey, actor string) notifications.Notification {
	return notifications.Notification{
		ID:             uuid.NewString(),
		ReceiverID:     receiverID,
		ReceiverType:   notifications.ReceiverTypeUser,
		Type:           "post.upvoted",
		TargetID:       "post-1",
		TargetType:     "post",
		AggregationKey: aggKey,
		Actors:         []string{actor},
	}
}

func TestMemoryStorageUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates a new notification", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()

		n, created, err := store.Upsert(ctx, candidateNotification("u1", "key", "Alice"), time.Minute)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 1, n.Count)
		assert.False(t, n.CreatedAt.IsZero())
	})

	t.Run("merges within the window", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()

		first, created, err := store.Upsert(ctx, candidateNotification("u1", "key", "Alice"), time.Minute)
		require.NoError(t, err)
		require.True(t, created)

		second, created, err := store.Upsert(ctx, candidateNotification("u1", "key", "Bob"), time.Minute)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 2, second.Count)
		assert.Equal(t, []string{"Alice", "Bob"}, second.Actors)
	})

	t.Run("creates a new row when the window is closed", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()

		first, _, err := store.Upsert(ctx, candidateNotification("u1", "key", "Alice"), 0)
		require.NoError(t, err)

		second, created, err := store.Upsert(ctx, candidateNotification("u1", "key", "Bob"), 0)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("different aggregation keys do not merge", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()

		_, _, err := store.Upsert(ctx, candidateNotification("u1", "key-a", "Alice"), time.Minute)
		require.NoError(t, err)

		_, created, err := store.Upsert(ctx, candidateNotification("u1", "key-b", "Bob"), time.Minute)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()

		noID := candidateNotification("u1", "key", "Alice")
		noID.ID = ""
		_, _, err := store.Upsert(ctx, noID, time.Minute)
		assert.ErrorIs(t, err, notifications.ErrMissingNotificationID)

		noReceiver := candidateNotification("", "key", "Alice")
		_, _, err = store.Upsert(ctx, noReceiver, time.Minute)
		assert.ErrorIs(t, err, notifications.ErrMissingReceiver)
	})
}

func TestMemoryStorageGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	created, _, err := store.Upsert(ctx, candidateNotification("u1", "key", "Alice"), time.Minute)
	require.NoError(t, err)

	got, err := store.Get(ctx, notifications.ReceiverTypeUser, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = store.Get(ctx, notifications.ReceiverTypeUser, "u1", "missing")
	assert.ErrorIs(t, err, notifications.ErrNotificationNotFound)

	_, err = store.Get(ctx, notifications.ReceiverTypeUser, "other", created.ID)
	assert.ErrorIs(t, err, notifications.ErrNotificationNotFound)
}

func TestMemoryStorageList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	var ids []string
	for i := 0; i < 3; i++ {
		n, _, err := store.Upsert(ctx, candidateNotification("u1", uuid.NewString(), "Alice"), 0)
		require.NoError(t, err)
		ids = append(ids, n.ID)
		time.Sleep(2 * time.Millisecond)
	}

	t.Run("newest first", func(t *testing.T) {
		list, err := store.List(ctx, notifications.ReceiverTypeUser, "u1", notifications.ListOptions{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, ids[2], list[0].ID)
		assert.Equal(t, ids[0], list[2].ID)
	})

	t.Run("limit and offset", func(t *testing.T) {
		list, err := store.List(ctx, notifications.ReceiverTypeUser, "u1", notifications.ListOptions{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, ids[1], list[0].ID)
	})

	t.Run("only unread", func(t *testing.T) {
		require.NoError(t, store.MarkRead(ctx, notifications.ReceiverTypeUser, "u1", ids[0]))

		list, err := store.List(ctx, notifications.ReceiverTypeUser, "u1", notifications.ListOptions{OnlyUnread: true})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("unknown receiver is empty", func(t *testing.T) {
		list, err := store.List(ctx, notifications.ReceiverTypeUser, "nobody", notifications.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestMemoryStorageMarkDelivered(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	n, _, err := store.Upsert(ctx, candidateNotification("u1", "key", "Alice"), time.Minute)
	require.NoError(t, err)

	at := time.Now()
	require.NoError(t, store.MarkDelivered(ctx, notifications.ReceiverTypeUser, "u1", n.ID, at))

	got, err := store.Get(ctx, notifications.ReceiverTypeUser, "u1", n.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeliveredAt)
	assert.True(t, got.DeliveredAt.Equal(at))

	err = store.MarkDelivered(ctx, notifications.ReceiverTypeUser, "u1", "missing", at)
	assert.ErrorIs(t, err, notifications.ErrNotificationNotFound)
}

func TestMemoryStorageCountUnread(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	a, _, err := store.Upsert(ctx, candidateNotification("u1", "key-a", "Alice"), time.Minute)
	require.NoError(t, err)
	_, _, err = store.Upsert(ctx, candidateNotification("u1", "key-b", "Bob"), time.Minute)
	require.NoError(t, err)

	count, err := store.CountUnread(ctx, notifications.ReceiverTypeUser, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.MarkRead(ctx, notifications.ReceiverTypeUser, "u1", a.ID))

	count, err = store.CountUnread(ctx, notifications.ReceiverTypeUser, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryStorageMarkAllRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	_, _, err := store.Upsert(ctx, candidateNotification("u1", "key-a", "Alice"), time.Minute)
	require.NoError(t, err)
	_, _, err = store.Upsert(ctx, candidateNotification("u1", "key-b", "Bob"), time.Minute)
	require.NoError(t, err)

	marked, err := store.MarkAllRead(ctx, notifications.ReceiverTypeUser, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	count, err := store.CountUnread(ctx, notifications.ReceiverTypeUser, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	marked, err = store.MarkAllRead(ctx, notifications.ReceiverTypeUser, "u1")
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestMemoryStorageDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	n, _, err := store.Upsert(ctx, candidateNotification("u1", "key", "Alice"), time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, notifications.ReceiverTypeUser, "u1", n.ID))

	_, err = store.Get(ctx, notifications.ReceiverTypeUser, "u1", n.ID)
	assert.ErrorIs(t, err, notifications.ErrNotificationNotFound)
}
