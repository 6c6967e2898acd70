package notifications

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification does not exist
	// for the given receiver.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrMissingNotificationID is returned when a notification is persisted
	// without an identifier.
	ErrMissingNotificationID = errors.New("missing notification ID")

	// ErrMissingReceiver is returned when a notification is persisted without
	// a receiver ID or receiver type.
	ErrMissingReceiver = errors.New("missing notification receiver")

	// ErrNoReceivers is returned when a rule resolved an empty receiver set.
	ErrNoReceivers = errors.New("no receivers resolved for event")

	// ErrCapacityExceeded is returned when the processor is already handling
	// its maximum number of concurrent events.
	ErrCapacityExceeded = errors.New("processor capacity exceeded")

	// ErrAlreadyProcessing is returned when the same event is submitted while
	// a previous submission is still in flight.
	ErrAlreadyProcessing = errors.New("event already being processed")

	// ErrAllReceiversFailed is returned when persisting failed for every
	// receiver resolved for an event.
	ErrAllReceiversFailed = errors.New("all receivers failed")
)
