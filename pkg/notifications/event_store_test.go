package notifications_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhvanit-ts/hrms-sub001/pkg/eventbus"
	"github.com/dhvanit-ts/hrms-sub001/pkg/notifications"
)

func TestMemoryEventStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("first store wins, repeats are duplicates", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryEventStore(time.Hour)

		evt, err := eventbus.NewPostUpvoted("post-1", "author-1", "voter-1", "Alice")
		require.NoError(t, err)

		created, err := store.Store(ctx, evt)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = store.Store(ctx, evt)
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("dedupes by content, not by event ID", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryEventStore(time.Hour)

		first, err := eventbus.NewPostUpvoted("post-1", "author-1", "voter-1", "Alice")
		require.NoError(t, err)
		second, err := eventbus.NewPostUpvoted("post-1", "author-1", "voter-1", "Alice")
		require.NoError(t, err)
		second.CreatedAt = first.CreatedAt
		require.NotEqual(t, first.ID, second.ID)

		created, err := store.Store(ctx, first)
		require.NoError(t, err)
		require.True(t, created)

		created, err = store.Store(ctx, second)
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("different actors are distinct events", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryEventStore(time.Hour)

		first, err := eventbus.NewPostUpvoted("post-1", "author-1", "voter-1", "Alice")
		require.NoError(t, err)
		second, err := eventbus.NewPostUpvoted("post-1", "author-1", "voter-2", "Bob")
		require.NoError(t, err)

		created, err := store.Store(ctx, first)
		require.NoError(t, err)
		require.True(t, created)

		created, err = store.Store(ctx, second)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("delete releases the key", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryEventStore(time.Hour)

		evt, err := eventbus.NewPostUpvoted("post-1", "author-1", "voter-1", "Alice")
		require.NoError(t, err)

		created, err := store.Store(ctx, evt)
		require.NoError(t, err)
		require.True(t, created)

		require.NoError(t, store.Delete(ctx, evt))

		created, err = store.Store(ctx, evt)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("keys expire after the TTL", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryEventStore(20 * time.Millisecond)

		evt, err := eventbus.NewPostUpvoted("post-1", "author-1", "voter-1", "Alice")
		require.NoError(t, err)

		created, err := store.Store(ctx, evt)
		require.NoError(t, err)
		require.True(t, created)

		time.Sleep(30 * time.Millisecond)

		created, err = store.Store(ctx, evt)
		require.NoError(t, err)
		assert.True(t, created)
	})
}
