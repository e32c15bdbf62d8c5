package server

import (
	"sync"
	"time"

	"mt5-gateway/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024 * 1024 // 1MB, subscription sets are small but candles echo back
	sendBufferSize = 256
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

// Client is one WebSocket consumer. Its subscription set and per-stream
// delivery state live on the client itself, guarded by its own mutex, so the
// broadcaster can walk a hub snapshot without holding the hub lock.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan interface{}
	id   string

	mu       sync.Mutex
	closed   bool
	specs    []models.MSubscriptionSpec
	lastSent map[string]int64
}

// -----------------------------------------------------------------------------

// NewClient wires a client for a hub. conn may be nil when the client is only
// used as a delivery-state holder (the pumps are started separately).
func NewClient(hub *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send:     make(chan interface{}, sendBufferSize),
		id:       id,
		lastSent: make(map[string]int64),
	}
}

// -----------------------------------------------------------------------------

// ID returns the client's connection identifier.
func (c *Client) ID() string {
	return c.id
}

// -----------------------------------------------------------------------------

// SetSubscription replaces the client's subscription set. Delivery state is
// kept so re-subscribing to an already-streamed pair does not re-send bars
// the client has seen.
func (c *Client) SetSubscription(specs []models.MSubscriptionSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specs = specs
}

// -----------------------------------------------------------------------------

// Subscription returns a copy of the current subscription set.
func (c *Client) Subscription() []models.MSubscriptionSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.MSubscriptionSpec, len(c.specs))
	copy(out, c.specs)
	return out
}

// -----------------------------------------------------------------------------

// LastSentTime returns the newest bar time delivered for a symbol/timeframe
// key, or 0 when nothing was sent yet.
func (c *Client) LastSentTime(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSent[key]
}

// -----------------------------------------------------------------------------

// MarkSent records the newest bar time delivered for a key. The watermark
// never moves backwards, so a stale batch cannot resurrect old bars.
func (c *Client) MarkSent(key string, barTime int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if barTime > c.lastSent[key] {
		c.lastSent[key] = barTime
	}
}

// -----------------------------------------------------------------------------

// Push queues a message without blocking. A full buffer or a retired client
// reports false so the hub can prune the consumer. The mutex orders Push
// against retire: the send channel is never written after it is closed.
func (c *Client) Push(message interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------

// retire closes the send channel exactly once. Called by the hub loop on
// unregister; a client that disconnects mid-broadcast is seen as closed by
// any in-flight Push instead of panicking on the closed channel.
func (c *Client) retire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		c.hub.Logger.Info("Client %s disconnected", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error for client %s: %v", c.id, err)
			}
			break
		}
		c.hub.handleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Write error for client %s: %v", c.id, err)
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
