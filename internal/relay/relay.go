package relay

import (
	"encoding/json"
	"sync"

	"game-relay/internal/models"
	"game-relay/pkg/logger"
)

// Reserved channel-name conventions. The relay itself treats every channel
// name as opaque; only the boundaries build names from these.
func GameRoom(gameID string) string { return "game_" + gameID }
func UserRoom(userID string) string { return "user_" + userID }

// Relay maps channel names to connection membership and fans events out to
// every member. A single mutex serializes every mutation and every broadcast,
// so each operation is one atomic step: a broadcast sees either all or none
// of any concurrent membership change, and the per-connection room set never
// diverges from the room index.
type Relay struct {
	mu       sync.Mutex
	registry *Registry
	rooms    map[string]map[string]*Connection
}

func New() *Relay {
	return &Relay{
		registry: NewRegistry(),
		rooms:    make(map[string]map[string]*Connection),
	}
}

// Connect enrolls a new transport connection and returns its record.
func (r *Relay) Connect(id, remoteAddr string, sender Sender) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn := r.registry.Add(id, remoteAddr, sender)
	logger.Info("client %s connected from %s", id, remoteAddr)
	return conn
}

// Register associates a user id with the connection and joins it to the
// user's direct channel. Calling it again with a different id overwrites the
// association and joins the new channel; membership of the previous
// user_<id> channel is deliberately left in place.
func (r *Relay) Register(connID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.registry.Get(connID)
	if !ok {
		return
	}
	conn.UserID = userID
	r.joinLocked(conn, UserRoom(userID))
	logger.Info("client %s registered as user %s", connID, userID)
}

// Disconnect removes the connection from the registry and from every channel
// it belonged to. Unknown ids are a no-op.
func (r *Relay) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnectLocked(connID)
}

func (r *Relay) disconnectLocked(connID string) {
	conn, ok := r.registry.Remove(connID)
	if !ok {
		return
	}
	for room := range conn.rooms {
		r.removeFromRoomLocked(connID, room)
	}
	conn.sender.Close()
	logger.Info("client %s disconnected", connID)
}

// Join adds the connection to the channel. Re-joining is a no-op. Empty
// channel names and unknown connections are ignored.
func (r *Relay) Join(connID, room string) {
	if room == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.registry.Get(connID)
	if !ok {
		return
	}
	r.joinLocked(conn, room)
}

func (r *Relay) joinLocked(conn *Connection, room string) {
	if _, ok := conn.rooms[room]; ok {
		return
	}
	conn.rooms[room] = struct{}{}
	members := r.rooms[room]
	if members == nil {
		members = make(map[string]*Connection)
		r.rooms[room] = members
	}
	members[conn.ID] = conn
	logger.Debug("client %s joined room %s (%d members)", conn.ID, room, len(members))
}

// Leave removes the connection from the channel. Leaving a channel the
// connection is not in is a no-op.
func (r *Relay) Leave(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.registry.Get(connID)
	if !ok {
		return
	}
	if _, ok := conn.rooms[room]; !ok {
		return
	}
	delete(conn.rooms, room)
	r.removeFromRoomLocked(connID, room)
	logger.Debug("client %s left room %s", connID, room)
}

// removeFromRoomLocked drops one membership edge from the room index. Empty
// rooms are not retained.
func (r *Relay) removeFromRoomLocked(connID, room string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// IsMember answers membership in O(1).
func (r *Relay) IsMember(connID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.registry.Get(connID)
	return ok && conn.InRoom(room)
}

// ChannelSize reports the current member count. A channel nobody is in
// reports 0 whether or not it ever existed.
func (r *Relay) ChannelSize(room string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[room])
}

// ClientCount reports the number of live connections.
func (r *Relay) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Count()
}

// RoomCount reports the number of channels with at least one member.
func (r *Relay) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Broadcast fans the event out to every current member of room and returns
// the member count at the moment the broadcast started. Delivery is
// fire-and-forget: the count is "subscribers at broadcast time", not
// confirmed deliveries. A member whose transport cannot accept the frame is
// evicted and simply does not receive it. Connections that join after the
// snapshot is taken do not receive this broadcast. On a nil relay the emit
// is a warned no-op reporting zero recipients.
func (r *Relay) Broadcast(room string, event models.EventType, payload interface{}) int {
	if r == nil {
		logger.Warn("broadcast %q to %s dropped: relay not initialized", event, room)
		return 0
	}
	frame, err := encodeEvent(event, payload)
	if err != nil {
		logger.Error("broadcast %q to %s dropped: %v", event, room, err)
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.rooms[room]
	audience := len(members)
	snapshot := make([]*Connection, 0, audience)
	for _, conn := range members {
		snapshot = append(snapshot, conn)
	}
	for _, conn := range snapshot {
		if !conn.sender.Send(frame) {
			logger.Warn("client %s send buffer full, evicting", conn.ID)
			r.disconnectLocked(conn.ID)
		}
	}
	logger.Debug("broadcast %q to %s reached %d subscribers", event, room, audience)
	return audience
}

// RelayFromSender is the membership-gated variant of Broadcast: the event is
// honored only if the sender itself is currently in the target channel.
// Otherwise it is dropped and logged; the sender is never told.
func (r *Relay) RelayFromSender(senderID, room string, event models.EventType, payload interface{}) int {
	if r == nil {
		logger.Warn("relay of %q to %s dropped: relay not initialized", event, room)
		return 0
	}
	if !r.IsMember(senderID, room) {
		logger.Warn("client %s relayed %q to %s without membership, dropped", senderID, event, room)
		return 0
	}
	return r.Broadcast(room, event, payload)
}

// Close evicts every connection. Used on shutdown.
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conn := range r.registry.conns {
		conn.sender.Close()
	}
	r.registry.conns = make(map[string]*Connection)
	r.rooms = make(map[string]map[string]*Connection)
}

func encodeEvent(event models.EventType, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.Envelope{Event: event, Data: data})
}
