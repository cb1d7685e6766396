package service

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tabsplit/tabsplit/internal/engine"
)

// KitchenHub fans engine transition events out to connected kitchen
// displays over websockets.
type KitchenHub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

// NewKitchenHub creates an empty hub.
func NewKitchenHub() *KitchenHub {
	return &KitchenHub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			// Kitchen displays live on the restaurant LAN; origin checks
			// are handled by the reverse proxy in front of this service.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle upgrades the request and keeps the connection registered until the
// display disconnects. Incoming messages are drained and discarded; the
// feed is one-way.
func (h *KitchenHub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	slog.Info("kitchen display connected", "remote_addr", r.RemoteAddr)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	slog.Info("kitchen display disconnected", "remote_addr", r.RemoteAddr)
}

// Broadcast sends the event to every connected display. Dead connections
// are dropped on write failure.
func (h *KitchenHub) Broadcast(ev engine.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to encode kitchen event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
