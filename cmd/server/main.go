package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"game-relay/internal/config"
	"game-relay/internal/handlers"
	"game-relay/internal/relay"
	"game-relay/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// The relay is the single source of truth for connections and rooms;
	// everything else gets a handle to it.
	rl := relay.New()

	// Initialize handlers
	broadcastHandlers := handlers.NewBroadcastHandlers(rl)
	wsHandlers := handlers.NewWebSocketHandlers(rl, cfg.Relay)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, broadcastHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("🚀 Relay started on http://localhost%s", cfg.Server.Port)
	logger.Info("📡 WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)
	printAPIEndpoints()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Relay shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error: %v", err)
	}
	rl.Close()
}

func setupRoutes(mux *http.ServeMux, broadcastHandlers *handlers.BroadcastHandlers, wsHandlers *handlers.WebSocketHandlers) {
	// Broadcast routes, called by the backend after its own writes succeed
	mux.HandleFunc("/api/broadcast/game-comment/new", postOnly(broadcastHandlers.NewGameComment))
	mux.HandleFunc("/api/broadcast/game-comment/edit", postOnly(broadcastHandlers.EditGameComment))
	mux.HandleFunc("/api/broadcast/game-comment/delete", postOnly(broadcastHandlers.DeleteGameComment))

	// Room status
	mux.HandleFunc("/api/room/", getOnly(broadcastHandlers.RoomStatus))

	// Health
	mux.HandleFunc("/health", getOnly(broadcastHandlers.Health))

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func printAPIEndpoints() {
	logger.Info("🔗 API endpoints:")
	logger.Info("   POST /api/broadcast/game-comment/new")
	logger.Info("   POST /api/broadcast/game-comment/edit")
	logger.Info("   POST /api/broadcast/game-comment/delete")
	logger.Info("   GET  /api/room/{roomName}")
	logger.Info("   GET  /health")
}
