package relay

import (
	"time"
)

// Sender is the transport-side handle for one connection. Send must not
// block; it reports whether the frame was accepted for delivery. A false
// return means the transport can no longer keep up and the relay will evict
// the connection. Close must be safe to call more than once.
type Sender interface {
	Send(data []byte) bool
	Close()
}

// Connection is the registry's record of one live socket.
type Connection struct {
	ID          string
	UserID      string
	RemoteAddr  string
	ConnectedAt time.Time

	rooms  map[string]struct{}
	sender Sender
}

// Rooms returns the names of every channel the connection is currently in.
func (c *Connection) Rooms() []string {
	names := make([]string, 0, len(c.rooms))
	for name := range c.rooms {
		names = append(names, name)
	}
	return names
}

// InRoom reports whether the connection is currently a member of room.
func (c *Connection) InRoom(room string) bool {
	_, ok := c.rooms[room]
	return ok
}

// Registry tracks every live connection. It does no locking of its own: the
// Relay serializes all access so that registry state and the room index
// always change as a single step.
type Registry struct {
	conns map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Add creates a record for a newly connected socket with an empty room set.
func (r *Registry) Add(id, remoteAddr string, sender Sender) *Connection {
	conn := &Connection{
		ID:          id,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		rooms:       make(map[string]struct{}),
		sender:      sender,
	}
	r.conns[id] = conn
	return conn
}

func (r *Registry) Get(id string) (*Connection, bool) {
	conn, ok := r.conns[id]
	return conn, ok
}

// Remove drops the record and returns it so the caller can clean up room
// membership. Unknown ids are treated as already clean.
func (r *Registry) Remove(id string) (*Connection, bool) {
	conn, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	return conn, ok
}

// Count reports the number of live connections. Observability only.
func (r *Registry) Count() int {
	return len(r.conns)
}
