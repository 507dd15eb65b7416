package models

import "encoding/json"

type BroadcastCommentRequest struct {
	GameID  FlexID          `json:"gameId"`
	Comment json.RawMessage `json:"comment"`
}

type DeleteCommentRequest struct {
	GameID    FlexID `json:"gameId"`
	CommentID FlexID `json:"commentId"`
}

type BroadcastResponse struct {
	Success    bool      `json:"success"`
	GameID     FlexID    `json:"gameId"`
	Room       string    `json:"room"`
	Recipients int       `json:"recipients"`
	Event      EventType `json:"event"`
	Timestamp  string    `json:"timestamp"`
}

type ValidationError struct {
	Error    string   `json:"error"`
	Required []string `json:"required"`
}

type RoomStatusResponse struct {
	Room    string `json:"room"`
	Clients int    `json:"clients"`
	Exists  bool   `json:"exists"`
}

type HealthResponse struct {
	Status    string  `json:"status"`
	Clients   int     `json:"clients"`
	Rooms     int     `json:"rooms"`
	Uptime    float64 `json:"uptime"`
	Timestamp string  `json:"timestamp"`
}
