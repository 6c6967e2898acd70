// Package dispatcher sits between the event bus and the notification
// pipeline, making downstream failures bounded and recoverable.
//
// The Dispatcher subscribes to every published event and routes each one
// through a circuit breaker into the notification processor. Failures are
// retried with exponential backoff from a single ticker-driven scheduler
// loop; events that exhaust their retries are dead-lettered with a
// structured log entry and a marker event. While the breaker is open,
// incoming events divert into a bounded FIFO queue and replay once it
// closes.
//
// Delivery failures live on a separate retry track keyed by receiver and
// notification. They are abandoned rather than dead-lettered on
// exhaustion, since the notification stays queryable either way.
//
// Operators reach the retry state through RetryEvent, RetryDelivery, the
// Clear methods, ResetBreaker, and Health, which the HTTP surface in
// pkg/ops exposes.
package dispatcher
