package server

import (
	"sync"

	"mt5-gateway/src/logger"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// Hub tracks the connected WebSocket clients. Registration flows through
// channels owned by the Run loop; the clients map is additionally guarded by
// a read lock so the broadcaster can snapshot it between loop iterations.
type Hub struct {
	Logger *logger.Logger

	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// -----------------------------------------------------------------------------

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		Logger:     log,
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		clients:    make(map[*Client]struct{}),
	}
}

// -----------------------------------------------------------------------------

// Run is the main Hub loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.Logger.Info("Client %s connected (%d total)", client.id, h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.retire()
			}
			h.mu.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------

// Snapshot returns the currently connected clients. The broadcaster iterates
// the snapshot outside the lock; clients that disconnect mid-cycle simply
// drop their queued messages.
func (h *Hub) Snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

// -----------------------------------------------------------------------------

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// -----------------------------------------------------------------------------

// ActiveSymbols returns the distinct symbols across all subscriptions.
func (h *Hub) ActiveSymbols() []string {
	seen := make(map[string]struct{})
	for _, client := range h.Snapshot() {
		for _, spec := range client.Subscription() {
			seen[spec.Symbol] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	return out
}

// -----------------------------------------------------------------------------

// Drop prunes a slow or dead client so broadcasts never block on it.
func (h *Hub) Drop(client *Client) {
	h.Logger.Warning("Dropping slow client %s", client.id)
	select {
	case h.unregister <- client:
	default:
		// Unregister queue full; readPump will retire the client on close.
	}
	client.conn.Close()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// handleClientMessage applies a subscription message atomically: either the
// whole set replaces the client's current one, or nothing changes and the
// client is told why.
func (h *Hub) handleClientMessage(client *Client, message []byte) {
	specs, err := ParseSubscription(message)
	switch {
	case err == ErrInvalidJSON:
		client.Push(map[string]string{"error": "Invalid JSON"})
		return
	case err != nil:
		client.Push(map[string]string{"error": "Invalid subscription format"})
		return
	}

	client.SetSubscription(specs)
	h.Logger.Info("Client %s subscribed to %d symbols", client.id, len(specs))
	client.Push(map[string]string{"status": "subscribed"})
}
