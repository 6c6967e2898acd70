// Package delivery pushes stored notifications to a receiver's live
// realtime sessions, best effort.
//
// Deliver looks the notification up, resolves the receiver's room, and
// pushes the payload plus a refreshed unread count only when at least one
// session is attached. An offline receiver is a success with DeliveredAt
// left unset; the notification remains reachable through the pull API.
// DeliveredAt is set only after a confirmed push.
package delivery
