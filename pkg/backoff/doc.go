// Package backoff provides retry delay strategies shared by the event bus,
// the resilient dispatcher, and the delivery service.
//
// The exponential strategy with jitter is the default everywhere; the fixed
// strategy exists mainly for deterministic tests.
//
// Usage:
//
//	strategy := backoff.Default()
//	delay := strategy.NextInterval(attempt)
package backoff
