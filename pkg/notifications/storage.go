package notifications

import (
	"context"
	"time"
)

// Storage handles notification persistence and retrieval. Upsert is the one
// operation mutated by concurrent producers and must be an atomic
// read-modify-write keyed by (receiver, aggregation key).
type Storage interface {
	// Upsert merges the candidate into an existing live notification with
	// the same (receiver, aggregation key) when that notification's
	// CreatedAt is inside the window, or inserts the candidate as a new
	// row otherwise. It returns the resulting notification and whether a
	// new row was created.
	Upsert(ctx context.Context, candidate Notification, window time.Duration) (Notification, bool, error)

	// Get retrieves a single notification for a receiver.
	Get(ctx context.Context, receiverType, receiverID, notifID string) (*Notification, error)

	// List returns notifications for a receiver, newest first.
	List(ctx context.Context, receiverType, receiverID string, opts ListOptions) ([]Notification, error)

	// MarkRead marks notification(s) as read.
	MarkRead(ctx context.Context, receiverType, receiverID string, notifIDs ...string) error

	// MarkAllRead marks every unread notification of the receiver as read
	// and returns how many were marked.
	MarkAllRead(ctx context.Context, receiverType, receiverID string) (int, error)

	// MarkDelivered records the confirmed realtime push timestamp.
	MarkDelivered(ctx context.Context, receiverType, receiverID, notifID string, at time.Time) error

	// CountUnread returns the receiver's unread total.
	CountUnread(ctx context.Context, receiverType, receiverID string) (int, error)

	// Delete removes notification(s).
	Delete(ctx context.Context, receiverType, receiverID string, notifIDs ...string) error
}

// ListOptions provides filtering and pagination for listing notifications.
type ListOptions struct {
	Limit      int        // Maximum number of notifications to return (0 = no limit)
	Offset     int        // Number of notifications to skip for pagination
	OnlyUnread bool       // When true, only return unread notifications
	Since      *time.Time // If specified, only return notifications created after this time
}
