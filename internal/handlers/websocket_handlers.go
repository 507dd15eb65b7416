package handlers

import (
	"net/http"

	"game-relay/internal/config"
	"game-relay/internal/relay"
	ws "game-relay/internal/websocket"
	"game-relay/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	relay      *relay.Relay
	upgrader   websocket.Upgrader
	sendBuffer int
}

func NewWebSocketHandlers(rl *relay.Relay, cfg config.RelayConfig) *WebSocketHandlers {
	return &WebSocketHandlers{
		relay:      rl,
		sendBuffer: cfg.SendBuffer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == cfg.AllowedOrigin
			},
		},
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.relay, conn, h.sendBuffer)

	// Start client pumps
	go client.WritePump()
	go client.ReadPump()
}
