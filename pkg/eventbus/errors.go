package eventbus

import "errors"

var (
	// ErrInvalidEvent is returned by event constructors and Validate when
	// mandatory fields are missing.
	ErrInvalidEvent = errors.New("eventbus: invalid event")

	// ErrHandlerTimeout wraps a handler execution that exceeded its timeout.
	ErrHandlerTimeout = errors.New("eventbus: handler timed out")

	// ErrDrainTimeout is returned by Close when in-flight handlers did not
	// finish within the shutdown bound.
	ErrDrainTimeout = errors.New("eventbus: shutdown drain timed out")
)
