package eventbus

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies a domain event kind.
type Type string

// Domain event types published by the surrounding business logic, plus the
// synthetic types the pipeline itself emits.
const (
	TypeLeaveApproved                 Type = "leave.approved"
	TypeLeaveRejected                 Type = "leave.rejected"
	TypeAttendanceCorrectionRequested Type = "attendance.correction_requested"
	TypeAttendanceCorrectionResolved  Type = "attendance.correction_resolved"
	TypePostUpvoted                   Type = "post.upvoted"
	TypePostCommented                 Type = "post.commented"

	// TypeNotificationCreated is emitted by the processor after each
	// successful notification upsert and consumed by the delivery path.
	TypeNotificationCreated Type = "notification.created"

	// TypeEventDeadLettered is emitted by the dispatcher when an event
	// exhausts all processing retries.
	TypeEventDeadLettered Type = "event.dead_lettered"
)

// Event is an immutable fact published by business logic. Type, TargetID and
// TargetType are mandatory; an event missing any of them is rejected at the
// bus boundary and never dispatched.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	ActorID    string         `json:"actor_id,omitempty"`
	ActorName  string         `json:"actor_name,omitempty"`
	TargetID   string         `json:"target_id"`
	TargetType string         `json:"target_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Validate checks the mandatory event fields.
func (e Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidEvent)
	}
	if e.TargetID == "" {
		return fmt.Errorf("%w: missing target id", ErrInvalidEvent)
	}
	if e.TargetType == "" {
		return fmt.Errorf("%w: missing target type", ErrInvalidEvent)
	}
	return nil
}

// Key returns the content-derived key used for retry bookkeeping and
// stored-event idempotence: type-targetID-targetType-actorID.
func (e Event) Key() string {
	return fmt.Sprintf("%s-%s-%s-%s", e.Type, e.TargetID, e.TargetType, e.ActorID)
}

// MetaString returns a string metadata value, or "" when absent.
func (e Event) MetaString(key string) string {
	if e.Metadata == nil {
		return ""
	}
	if v, ok := e.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// newEvent assembles and validates an event; constructors below are the only
// way invalid payloads are caught, at construction rather than dispatch time.
func newEvent(t Type, targetID, targetType, actorID, actorName string, meta map[string]any) (Event, error) {
	evt := Event{
		ID:         uuid.New().String(),
		Type:       t,
		ActorID:    actorID,
		ActorName:  actorName,
		TargetID:   targetID,
		TargetType: targetType,
		Metadata:   meta,
		CreatedAt:  time.Now(),
	}
	if err := evt.Validate(); err != nil {
		return Event{}, err
	}
	return evt, nil
}
