package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"game-relay/internal/models"
	"game-relay/internal/relay"
	"game-relay/pkg/logger"
)

// BroadcastHandlers is the HTTP control surface the backend calls after its
// own writes succeed. Every endpoint validates first and only then touches
// the relay.
type BroadcastHandlers struct {
	relay     *relay.Relay
	startedAt time.Time
}

func NewBroadcastHandlers(rl *relay.Relay) *BroadcastHandlers {
	return &BroadcastHandlers{
		relay:     rl,
		startedAt: time.Now(),
	}
}

// NewGameComment handles POST /api/broadcast/game-comment/new.
func (h *BroadcastHandlers) NewGameComment(w http.ResponseWriter, r *http.Request) {
	h.broadcastComment(w, r, models.EventGameCommentNew, "id", "text")
}

// EditGameComment handles POST /api/broadcast/game-comment/edit.
func (h *BroadcastHandlers) EditGameComment(w http.ResponseWriter, r *http.Request) {
	h.broadcastComment(w, r, models.EventGameCommentEdit, "id")
}

func (h *BroadcastHandlers) broadcastComment(w http.ResponseWriter, r *http.Request, event models.EventType, commentFields ...string) {
	var req models.BroadcastCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var missing []string
	if req.GameID.IsZero() {
		missing = append(missing, "gameId")
	}
	for _, f := range models.MissingFields(req.Comment, commentFields...) {
		missing = append(missing, "comment."+f)
	}
	if len(missing) > 0 {
		writeValidationError(w, missing)
		return
	}

	room := relay.GameRoom(req.GameID.String())
	recipients := h.relay.Broadcast(room, event, req.Comment)
	writeJSON(w, http.StatusOK, models.BroadcastResponse{
		Success:    true,
		GameID:     req.GameID,
		Room:       room,
		Recipients: recipients,
		Event:      event,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}

// DeleteGameComment handles POST /api/broadcast/game-comment/delete. The
// comment is already gone upstream, so only its id travels.
func (h *BroadcastHandlers) DeleteGameComment(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var missing []string
	if req.GameID.IsZero() {
		missing = append(missing, "gameId")
	}
	if req.CommentID.IsZero() {
		missing = append(missing, "commentId")
	}
	if len(missing) > 0 {
		writeValidationError(w, missing)
		return
	}

	room := relay.GameRoom(req.GameID.String())
	recipients := h.relay.Broadcast(room, models.EventGameCommentDelete, models.CommentRef{
		ID:     req.CommentID,
		GameID: req.GameID,
	})
	writeJSON(w, http.StatusOK, models.BroadcastResponse{
		Success:    true,
		GameID:     req.GameID,
		Room:       room,
		Recipients: recipients,
		Event:      models.EventGameCommentDelete,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}

// RoomStatus handles GET /api/room/{roomName}.
func (h *BroadcastHandlers) RoomStatus(w http.ResponseWriter, r *http.Request) {
	room := strings.TrimPrefix(r.URL.Path, "/api/room/")
	if room == "" || strings.Contains(room, "/") {
		writeError(w, http.StatusBadRequest, "invalid room name")
		return
	}

	clients := h.relay.ChannelSize(room)
	writeJSON(w, http.StatusOK, models.RoomStatusResponse{
		Room:    room,
		Clients: clients,
		Exists:  clients > 0,
	})
}

// Health handles GET /health.
func (h *BroadcastHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Clients:   h.relay.ClientCount(),
		Rooms:     h.relay.RoomCount(),
		Uptime:    time.Since(h.startedAt).Seconds(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidationError(w http.ResponseWriter, missing []string) {
	writeJSON(w, http.StatusBadRequest, models.ValidationError{
		Error:    "missing required fields",
		Required: missing,
	})
}
