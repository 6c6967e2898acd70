package eventbus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhvanit-ts/hrms-sub001/pkg/eventbus"
)

func TestEventConstructors(t *testing.T) {
	t.Parallel()

	t.Run("leave approved", func(t *testing.T) {
		t.Parallel()

		evt, err := eventbus.NewLeaveApproved("leave-1", "emp-1", "mgr-1", "Jordan Lee")
		require.NoError(t, err)

		assert.NotEmpty(t, evt.ID)
		assert.Equal(t, eventbus.TypeLeaveApproved, evt.Type)
		assert.Equal(t, "leave-1", evt.TargetID)
		assert.Equal(t, eventbus.TargetTypeLeave, evt.TargetType)
		assert.Equal(t, "mgr-1", evt.ActorID)
		assert.Equal(t, "Jordan Lee", evt.ActorName)
		assert.Equal(t, "emp-1", evt.MetaString(eventbus.MetaEmployeeID))
		assert.False(t, evt.CreatedAt.IsZero())
	})

	t.Run("leave approved requires employee", func(t *testing.T) {
		t.Parallel()

		_, err := eventbus.NewLeaveApproved("leave-1", "", "mgr-1", "Jordan Lee")
		assert.ErrorIs(t, err, eventbus.ErrInvalidEvent)
	})

	t.Run("post upvoted", func(t *testing.T) {
		t.Parallel()

		evt, err := eventbus.NewPostUpvoted("post-1", "author-1", "voter-1", "Sam Green")
		require.NoError(t, err)

		assert.Equal(t, eventbus.TypePostUpvoted, evt.Type)
		assert.Equal(t, "author-1", evt.MetaString(eventbus.MetaAuthorID))
	})

	t.Run("post upvoted requires author", func(t *testing.T) {
		t.Parallel()

		_, err := eventbus.NewPostUpvoted("post-1", "", "voter-1", "Sam Green")
		assert.ErrorIs(t, err, eventbus.ErrInvalidEvent)
	})

	t.Run("attendance correction requested targets manager", func(t *testing.T) {
		t.Parallel()

		evt, err := eventbus.NewAttendanceCorrectionRequested("corr-1", "mgr-1", "emp-1", "Dana Cruz")
		require.NoError(t, err)

		assert.Equal(t, "mgr-1", evt.MetaString(eventbus.MetaReceiverID))
		assert.Equal(t, "emp-1", evt.ActorID)
	})

	t.Run("notification created", func(t *testing.T) {
		t.Parallel()

		evt, err := eventbus.NewNotificationCreated("notif-1", "emp-1", "employee")
		require.NoError(t, err)

		assert.Equal(t, eventbus.TypeNotificationCreated, evt.Type)
		assert.Equal(t, "notif-1", evt.MetaString(eventbus.MetaNotificationID))
		assert.Equal(t, "emp-1", evt.MetaString(eventbus.MetaReceiverID))
		assert.Equal(t, "employee", evt.MetaString(eventbus.MetaReceiverType))
	})

	t.Run("dead lettered carries original identity", func(t *testing.T) {
		t.Parallel()

		orig, err := eventbus.NewPostUpvoted("post-1", "author-1", "voter-1", "Sam Green")
		require.NoError(t, err)

		evt, err := eventbus.NewEventDeadLettered(orig, "max retries exceeded")
		require.NoError(t, err)

		assert.Equal(t, eventbus.TypeEventDeadLettered, evt.Type)
		assert.Equal(t, string(orig.Type), evt.MetaString(eventbus.MetaOriginalType))
		assert.Equal(t, orig.Key(), evt.MetaString(eventbus.MetaOriginalKey))
		assert.Equal(t, "max retries exceeded", evt.MetaString(eventbus.MetaReason))
	})
}

func TestEvent_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		evt     eventbus.Event
		wantErr bool
	}{
		{
			name: "valid",
			evt:  eventbus.Event{Type: eventbus.TypePostUpvoted, TargetID: "post-1", TargetType: "post"},
		},
		{
			name:    "missing type",
			evt:     eventbus.Event{TargetID: "post-1", TargetType: "post"},
			wantErr: true,
		},
		{
			name:    "missing target id",
			evt:     eventbus.Event{Type: eventbus.TypePostUpvoted, TargetType: "post"},
			wantErr: true,
		},
		{
			name:    "missing target type",
			evt:     eventbus.Event{Type: eventbus.TypePostUpvoted, TargetID: "post-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.evt.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, eventbus.ErrInvalidEvent)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvent_Key(t *testing.T) {
	t.Parallel()

	evt := eventbus.Event{
		Type:       eventbus.TypePostUpvoted,
		TargetID:   "post-1",
		TargetType: "post",
		ActorID:    "voter-1",
	}
	assert.Equal(t, "post.upvoted-post-1-post-voter-1", evt.Key())
}
