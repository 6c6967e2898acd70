package realtime

import (
	"container/list"
	"fmt"
	"sync"
)

// RoomName builds the canonical room name for a receiver.
func RoomName(receiverType, receiverID string) string {
	return fmt.Sprintf("%s:%s", receiverType, receiverID)
}

type registryEntry struct {
	name string
	room *Room
}

// Registry maps receivers to rooms, capping the number of live rooms with
// least-recently-used eviction. Evicted rooms are closed, dropping their
// sessions; clients reconnect through the pull API's usual path.
type Registry struct {
	capacity   int
	bufferSize int

	mu    sync.Mutex
	rooms map[string]*list.Element
	order *list.List // front = most recently used
}

// NewRegistry creates a room registry. capacity bounds the number of rooms
// (default 10000 when <= 0); bufferSize is passed through to each room.
func NewRegistry(capacity, bufferSize int) *Registry {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Registry{
		capacity:   capacity,
		bufferSize: bufferSize,
		rooms:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Room returns the room for the given name, creating it if needed.
func (r *Registry) Room(name string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.rooms[name]; ok {
		r.order.MoveToFront(el)
		return el.Value.(*registryEntry).room
	}

	room := NewRoom(name, r.bufferSize)
	el := r.order.PushFront(&registryEntry{name: name, room: room})
	r.rooms[name] = el

	if r.order.Len() > r.capacity {
		r.evictOldest()
	}

	return room
}

// Lookup returns the room for the given name without creating one.
func (r *Registry) Lookup(name string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.rooms[name]
	if !ok {
		return nil, false
	}
	r.order.MoveToFront(el)
	return el.Value.(*registryEntry).room, true
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}

// Close closes every room and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	rooms := make([]*Room, 0, r.order.Len())
	for el := r.order.Front(); el != nil; el = el.Next() {
		rooms = append(rooms, el.Value.(*registryEntry).room)
	}
	clear(r.rooms)
	r.order.Init()
	r.mu.Unlock()

	for _, room := range rooms {
		_ = room.Close()
	}
	return nil
}

// evictOldest removes the least recently used room. Caller holds r.mu.
func (r *Registry) evictOldest() {
	el := r.order.Back()
	if el == nil {
		return
	}
	entry := el.Value.(*registryEntry)
	r.order.Remove(el)
	delete(r.rooms, entry.name)

	// Close outside the lock would be nicer, but room.Close only takes the
	// room's own mutex and never the registry's, so no deadlock is possible.
	_ = entry.room.Close()
}
