package models

import (
	"encoding/json"
	"fmt"
)

type EventType string

// Inbound channel-control and relay-triggered events.
const (
	EventJoinRoom       EventType = "joinRoom"
	EventLeaveRoom      EventType = "leaveRoom"
	EventRegister       EventType = "register"
	EventMessage        EventType = "message"
	EventPrivateMessage EventType = "privateMessage"
	EventCommentNew     EventType = "broadcast_comment_new"
	EventPlayersUpdated EventType = "broadcast_players_updated"
)

// Outbound events.
const (
	EventGameCommentNew     EventType = "game_comment_new"
	EventGameCommentEdit    EventType = "game_comment_edit"
	EventGameCommentDelete  EventType = "game_comment_delete"
	EventGamePlayersUpdated EventType = "game_players_updated"
)

// Envelope is the wire frame in both directions: an event name plus an
// event-specific data payload.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// FlexID is an identifier that may arrive as a JSON number or a JSON string.
// It keeps the original form so responses echo ids back exactly as sent.
type FlexID struct {
	value string
	raw   json.RawMessage
}

func (id *FlexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		id.value = s
		id.raw = append(json.RawMessage(nil), b...)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		id.value = n.String()
		id.raw = append(json.RawMessage(nil), b...)
		return nil
	}
	return fmt.Errorf("id must be a string or a number, got %s", b)
}

func (id FlexID) MarshalJSON() ([]byte, error) {
	if id.raw == nil {
		return []byte("null"), nil
	}
	return id.raw, nil
}

func (id FlexID) String() string { return id.value }

func (id FlexID) IsZero() bool { return id.value == "" }

// MessagePayload is the data of an inbound "message" event.
type MessagePayload struct {
	Room    string          `json:"room"`
	Message json.RawMessage `json:"message"`
}

// MessageEvent is what room members receive for it.
type MessageEvent struct {
	Room    string          `json:"room"`
	Message json.RawMessage `json:"message"`
	From    string          `json:"from"`
}

// PrivateMessagePayload is the data of an inbound "privateMessage" event;
// To is a channel name, normally user_<id>.
type PrivateMessagePayload struct {
	To      string          `json:"to"`
	Message json.RawMessage `json:"message"`
}

type PrivateMessageEvent struct {
	To      string          `json:"to"`
	Message json.RawMessage `json:"message"`
	From    string          `json:"from"`
}

// CommentBroadcastPayload is the data of an inbound "broadcast_comment_new"
// event. The comment itself is opaque to the relay and passed through
// unchanged.
type CommentBroadcastPayload struct {
	GameID  FlexID          `json:"gameId"`
	Comment json.RawMessage `json:"comment"`
}

// PlayersUpdatedPayload doubles as the data of the inbound
// "broadcast_players_updated" event and the outbound "game_players_updated"
// event.
type PlayersUpdatedPayload struct {
	GameID FlexID `json:"gameId"`
}

// CommentRef is the outbound "game_comment_delete" payload.
type CommentRef struct {
	ID     FlexID `json:"id"`
	GameID FlexID `json:"gameId"`
}

// MissingFields reports which of the named fields are absent from an opaque
// JSON object. A JSON null counts as absent; a payload that is not an object
// is missing everything.
func MissingFields(obj json.RawMessage, fields ...string) []string {
	var m map[string]json.RawMessage
	if len(obj) == 0 || json.Unmarshal(obj, &m) != nil {
		return fields
	}
	var missing []string
	for _, f := range fields {
		v, ok := m[f]
		if !ok || string(v) == "null" {
			missing = append(missing, f)
		}
	}
	return missing
}
