package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/dhvanit-ts/hrms-sub001/pkg/eventbus"
)

// Receiver types used by the built-in rules.
const (
	ReceiverTypeEmployee = "employee"
	ReceiverTypeManager  = "manager"
	ReceiverTypeUser     = "user"
)

// DefaultAggregationWindow is how long a notification stays open for
// merging repeat occurrences of the same aggregation key.
const DefaultAggregationWindow = 5 * time.Minute

// Rule turns one event type into notifications: who receives them, which
// key groups repeats together, and how long the grouping window stays open.
type Rule struct {
	// Resolve returns the receivers the event should notify.
	Resolve func(ctx context.Context, evt eventbus.Event) ([]Receiver, error)

	// AggregationKey groups repeat events into one notification. Events
	// with the same key inside Window merge instead of creating new rows.
	AggregationKey func(evt eventbus.Event) string

	// Window bounds how old a notification may be and still absorb a new
	// occurrence. Zero disables aggregation for this rule.
	Window time.Duration
}

// RuleSet maps event types to their notification rules.
type RuleSet map[eventbus.Type]Rule

// Rule returns the rule registered for the event type.
func (rs RuleSet) Rule(t eventbus.Type) (Rule, bool) {
	r, ok := rs[t]
	return r, ok
}

func targetAggregationKey(evt eventbus.Event) string {
	return fmt.Sprintf("%s:%s:%s", evt.Type, evt.TargetType, evt.TargetID)
}

func metaReceiver(evt eventbus.Event, key, receiverType string) ([]Receiver, error) {
	id := evt.MetaString(key)
	if id == "" {
		return nil, fmt.Errorf("%w: missing %s metadata", ErrNoReceivers, key)
	}
	return []Receiver{{ID: id, Type: receiverType}}, nil
}

// DefaultRules wires the built-in event constructors to their receivers.
// Every rule reads the receiver from event metadata; aggregation keys group
// by event type and target so repeat upvotes on one post collapse into a
// single notification with a growing actor list.
func DefaultRules() RuleSet {
	return RuleSet{
		eventbus.TypeLeaveApproved: {
			Resolve: func(_ context.Context, evt eventbus.Event) ([]Receiver, error) {
				return metaReceiver(evt, eventbus.MetaEmployeeID, ReceiverTypeEmployee)
			},
			AggregationKey: targetAggregationKey,
			Window:         DefaultAggregationWindow,
		},
		eventbus.TypeLeaveRejected: {
			Resolve: func(_ context.Context, evt eventbus.Event) ([]Receiver, error) {
				return metaReceiver(evt, eventbus.MetaEmployeeID, ReceiverTypeEmployee)
			},
			AggregationKey: targetAggregationKey,
			Window:         DefaultAggregationWindow,
		},
		eventbus.TypeAttendanceCorrectionRequested: {
			Resolve: func(_ context.Context, evt eventbus.Event) ([]Receiver, error) {
				return metaReceiver(evt, eventbus.MetaReceiverID, ReceiverTypeManager)
			},
			AggregationKey: targetAggregationKey,
			Window:         DefaultAggregationWindow,
		},
		eventbus.TypeAttendanceCorrectionResolved: {
			Resolve: func(_ context.Context, evt eventbus.Event) ([]Receiver, error) {
				return metaReceiver(evt, eventbus.MetaEmployeeID, ReceiverTypeEmployee)
			},
			AggregationKey: targetAggregationKey,
			Window:         DefaultAggregationWindow,
		},
		eventbus.TypePostUpvoted: {
			Resolve: func(_ context.Context, evt eventbus.Event) ([]Receiver, error) {
				return metaReceiver(evt, eventbus.MetaAuthorID, ReceiverTypeUser)
			},
			AggregationKey: targetAggregationKey,
			Window:         DefaultAggregationWindow,
		},
		eventbus.TypePostCommented: {
			Resolve: func(_ context.Context, evt eventbus.Event) ([]Receiver, error) {
				return metaReceiver(evt, eventbus.MetaAuthorID, ReceiverTypeUser)
			},
			AggregationKey: targetAggregationKey,
			Window:         DefaultAggregationWindow,
		},
	}
}
