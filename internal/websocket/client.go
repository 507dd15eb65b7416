package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"game-relay/internal/models"
	"game-relay/internal/relay"
	"game-relay/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Client binds one upgraded connection to the relay: it owns the gorilla
// read/write pumps and dispatches inbound envelopes to relay operations.
// Client is the relay's Sender for this connection.
type Client struct {
	relay     *relay.Relay
	conn      *websocket.Conn
	send      chan []byte
	id        string
	closeOnce sync.Once
}

func NewClient(rl *relay.Relay, conn *websocket.Conn, sendBuffer int) *Client {
	client := &Client{
		relay: rl,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		id:    uuid.NewString(),
	}
	rl.Connect(client.id, conn.RemoteAddr().String(), client)
	return client
}

func (c *Client) ID() string { return c.id }

// Send queues a frame for the write pump. It never blocks; a full buffer
// reports failure and the relay evicts the connection.
func (c *Client) Send(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close releases the write pump. Safe to call more than once; only the
// relay calls it, always from inside its own lock.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *Client) ReadPump() {
	defer func() {
		c.relay.Disconnect(c.id)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error: %v", err)
			}
			break
		}
		c.dispatch(raw)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound envelope. Malformed or unknown frames are
// logged and ignored; the connection stays up.
func (c *Client) dispatch(raw []byte) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warn("client %s sent malformed frame: %v", c.id, err)
		return
	}

	switch env.Event {
	case models.EventJoinRoom:
		room, ok := c.roomName(env)
		if ok {
			c.relay.Join(c.id, room)
		}

	case models.EventLeaveRoom:
		room, ok := c.roomName(env)
		if ok {
			c.relay.Leave(c.id, room)
		}

	case models.EventRegister:
		var userID models.FlexID
		if err := json.Unmarshal(env.Data, &userID); err != nil || userID.IsZero() {
			logger.Warn("client %s sent invalid register payload", c.id)
			return
		}
		c.relay.Register(c.id, userID.String())

	case models.EventMessage:
		var p models.MessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.Room == "" {
			logger.Warn("client %s sent invalid message payload", c.id)
			return
		}
		c.relay.Broadcast(p.Room, models.EventMessage, models.MessageEvent{
			Room:    p.Room,
			Message: p.Message,
			From:    c.id,
		})

	case models.EventPrivateMessage:
		var p models.PrivateMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.To == "" {
			logger.Warn("client %s sent invalid privateMessage payload", c.id)
			return
		}
		c.relay.Broadcast(p.To, models.EventPrivateMessage, models.PrivateMessageEvent{
			To:      p.To,
			Message: p.Message,
			From:    c.id,
		})

	case models.EventCommentNew:
		var p models.CommentBroadcastPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.GameID.IsZero() || len(p.Comment) == 0 {
			logger.Warn("client %s sent invalid broadcast_comment_new payload", c.id)
			return
		}
		room := relay.GameRoom(p.GameID.String())
		c.relay.RelayFromSender(c.id, room, models.EventGameCommentNew, p.Comment)

	case models.EventPlayersUpdated:
		var p models.PlayersUpdatedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.GameID.IsZero() {
			logger.Warn("client %s sent invalid broadcast_players_updated payload", c.id)
			return
		}
		c.relay.Broadcast(relay.GameRoom(p.GameID.String()), models.EventGamePlayersUpdated, p)

	default:
		logger.Debug("client %s sent unknown event %q", c.id, env.Event)
	}
}

// roomName extracts a bare-string room payload for joinRoom/leaveRoom.
func (c *Client) roomName(env models.Envelope) (string, bool) {
	var room string
	if err := json.Unmarshal(env.Data, &room); err != nil || room == "" {
		logger.Warn("client %s sent invalid %s payload", c.id, env.Event)
		return "", false
	}
	return room, true
}
