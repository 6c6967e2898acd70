package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Message kinds pushed into a room.
const (
	MessageKindNotification = "notification"
	MessageKindUnreadCount  = "unread-count"
)

// Message is the payload pushed to live sessions.
type Message struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// Session is one live client connection attached to a room.
// All methods are safe for concurrent use.
type Session struct {
	id     string
	ch     chan Message
	closed bool
	mu     sync.RWMutex
}

func newSession(bufferSize int) *Session {
	return &Session{
		id: uuid.New().String(),
		ch: make(chan Message, bufferSize),
	}
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// Receive returns the channel delivering pushed messages. The channel is
// closed when the session closes.
func (s *Session) Receive() <-chan Message {
	return s.ch
}

// Close detaches the session. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send delivers non-blocking; a full buffer means the consumer is too slow
// and the message is dropped for that session.
func (s *Session) send(msg Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// Room groups the live sessions of a single receiver. Pushes drop messages
// for slow consumers rather than blocking the delivery path.
type Room struct {
	name       string
	sessions   map[*Session]struct{}
	bufferSize int
	closed     bool
	mu         sync.RWMutex
	cleanupWg  sync.WaitGroup
}

// NewRoom creates a room. bufferSize is the per-session channel buffer;
// a minimum of 1 is enforced so sends stay non-blocking.
func NewRoom(name string, bufferSize int) *Room {
	return &Room{
		name:       name,
		sessions:   make(map[*Session]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

// Name returns the room name.
func (r *Room) Name() string {
	return r.name
}

// Attach creates a session bound to the room. The session is detached
// automatically when ctx is cancelled. A closed room returns an already
// closed session.
func (r *Room) Attach(ctx context.Context) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		sess := newSession(r.bufferSize)
		_ = sess.Close()
		return sess
	}

	sess := newSession(r.bufferSize)
	r.sessions[sess] = struct{}{}

	if ctx.Done() != nil {
		r.cleanupWg.Add(1)
		go func() {
			defer r.cleanupWg.Done()
			<-ctx.Done()
			r.detach(sess)
		}()
	}

	return sess
}

// Push sends a message to every live session and returns the number of
// sessions that accepted it. Slow or closed sessions are detached.
func (r *Room) Push(msg Message) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0
	}

	delivered := 0
	for sess := range r.sessions {
		if sess.send(msg) {
			delivered++
		} else {
			// Detach asynchronously to avoid write-lock contention
			// during the read-locked push.
			go r.detach(sess)
		}
	}

	return delivered
}

// SessionCount returns the number of currently attached sessions.
func (r *Room) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close shuts down the room and all its sessions. Idempotent.
func (r *Room) Close() error {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return nil
	}

	r.closed = true
	for sess := range r.sessions {
		_ = sess.Close()
	}
	clear(r.sessions)
	r.mu.Unlock()

	r.cleanupWg.Wait()

	return nil
}

func (r *Room) detach(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sess)
	_ = sess.Close()
}
