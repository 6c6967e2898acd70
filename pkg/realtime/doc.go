// Package realtime implements the in-memory room primitive the delivery
// service pushes through: one room per receiver, many live sessions per
// room.
//
// Rooms never block the pusher: a session whose buffer is full has the
// message dropped and is detached. The registry caps the number of live
// rooms with LRU eviction so a long-running process cannot accumulate a
// room per receiver that ever connected.
//
// Transports (WebSocket handlers, SSE endpoints) attach sessions:
//
//	room := registry.Room(realtime.RoomName("employee", employeeID))
//	sess := room.Attach(r.Context())
//	for msg := range sess.Receive() {
//		// write msg to the wire
//	}
package realtime
