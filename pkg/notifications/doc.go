// Package notifications turns domain events into stored, aggregated
// notifications.
//
// The Processor is the entry point: given an event, it resolves receivers
// through a RuleSet, writes one notification per receiver through Storage,
// and announces each write on the event bus so the delivery layer can push
// it to connected clients.
//
// Two layers make processing idempotent. An EventStore records which events
// have already been handled, keyed by event content, so re-published copies
// of the same logical event become no-ops. An in-flight set keyed by event
// ID rejects concurrent submissions of the same event while the first is
// still running.
//
// Repeat events with the same aggregation key merge into an existing unread
// notification inside the rule's window instead of creating a new row: the
// actor list grows, the count increments, and the notification flips back
// to unread.
//
// Storage has two implementations: MemoryStorage for development and tests,
// and PostgresStorage for durable deployments. EventStore likewise ships as
// MemoryEventStore and RedisEventStore.
package notifications
