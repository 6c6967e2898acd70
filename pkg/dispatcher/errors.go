package dispatcher

import "errors"

var (
	// ErrAlreadyStarted is returned by Start after the first call.
	ErrAlreadyStarted = errors.New("dispatcher already started")

	// ErrShutdownTimeout is returned when Close gives up waiting for the
	// scheduler loop to stop.
	ErrShutdownTimeout = errors.New("dispatcher shutdown timeout")
)
