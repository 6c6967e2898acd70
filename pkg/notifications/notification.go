package notifications

import (
	"slices"
	"time"
)

// Receiver identifies who a notification is addressed to.
type Receiver struct {
	ID   string `json:"id"`
	Type string `json:"type"` // employee, manager, ...
}

// Notification is the aggregated, deduplicated record delivered to one
// receiver. At most one live (in-window) notification exists per
// (receiver, aggregation key); repeat events inside the window merge into
// it, repeat events outside the window create a new row.
type Notification struct {
	ID             string     `json:"id"`
	ReceiverID     string     `json:"receiver_id"`
	ReceiverType   string     `json:"receiver_type"`
	Type           string     `json:"type"` // originating event type
	TargetID       string     `json:"target_id"`
	TargetType     string     `json:"target_type"`
	AggregationKey string     `json:"aggregation_key"`
	Actors         []string   `json:"actors"` // display names, insertion order, deduplicated
	Count          int        `json:"count"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// InWindow reports whether the notification's creation time still falls
// inside the aggregation window at the given instant. The window is anchored
// on CreatedAt, not UpdatedAt, so a chatty target cannot keep one row
// aggregating forever.
func (n *Notification) InWindow(at time.Time, window time.Duration) bool {
	return at.Sub(n.CreatedAt) < window
}

// Merge folds a repeat event into the notification: the actor is appended if
// new, the count incremented, and the notification reset to unread and
// undelivered so the receiver is re-notified.
func (n *Notification) Merge(actorName string) {
	if actorName != "" && !slices.Contains(n.Actors, actorName) {
		n.Actors = append(n.Actors, actorName)
	}
	n.Count++
	n.Read = false
	n.ReadAt = nil
	n.DeliveredAt = nil
	n.UpdatedAt = time.Now()
}

// MarkAsRead marks the notification as read with the current timestamp.
func (n *Notification) MarkAsRead() {
	n.Read = true
	now := time.Now()
	n.ReadAt = &now
}
