package websocket

import (
	"sync"
	"time"

	"github.com/nexerp-ops/procmon-backend-go/internal/core/alerts"
	"github.com/sirupsen/logrus"
)

// Hub maintains the set of connected clients and fans alert notifications
// out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	logger     *logrus.Logger
	mu         sync.RWMutex
	stats      HubStats
}

// HubStats tracks connection and delivery counters.
type HubStats struct {
	ConnectedClients int       `json:"connected_clients"`
	TotalConnections int64     `json:"total_connections"`
	MessagesSent     int64     `json:"messages_sent"`
	LastActivity     time.Time `json:"last_activity"`
}

// NewHub creates a hub. Call Run in its own goroutine before accepting
// connections.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		stats:      HubStats{LastActivity: time.Now()},
	}
}

// Run handles registration, unregistration and broadcasting until the
// process exits.
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// BroadcastAlert pushes a classified alert to every connected client.
func (h *Hub) BroadcastAlert(alert *alerts.Alert) {
	msg := Message{Type: "alert", Data: alert}
	select {
	case h.broadcast <- msg.ToJSON():
	default:
		h.logger.Warn("WebSocket broadcast queue full, dropping alert message")
	}
}

// Stats returns a snapshot of the hub counters.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.stats.TotalConnections++
	h.stats.ConnectedClients = len(h.clients)
	h.stats.LastActivity = time.Now()

	h.logger.WithFields(logrus.Fields{
		"client_id":         client.ID,
		"connected_clients": len(h.clients),
	}).Info("WebSocket client connected")

	welcome := Message{
		Type: "connection",
		Data: map[string]interface{}{
			"status":    "connected",
			"client_id": client.ID,
		},
	}
	client.send <- welcome.ToJSON()
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.stats.ConnectedClients = len(h.clients)
		h.stats.LastActivity = time.Now()

		h.logger.WithField("client_id", client.ID).Info("WebSocket client disconnected")
	}
}

func (h *Hub) broadcastMessage(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- message:
			h.stats.MessagesSent++
		default:
			// Slow consumer, drop it.
			delete(h.clients, client)
			close(client.send)
		}
	}
	h.stats.ConnectedClients = len(h.clients)
	h.stats.LastActivity = time.Now()
}
