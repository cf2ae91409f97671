// Package messaging provides the websocket fan-out channel from the
// gateway to connected clients.
package messaging

import (
	"encoding/json"
	"sync"

	"github.com/GatherLoop/gathersync/internal/domain/entities/messages"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/gorilla/websocket"
)

// Broadcaster manages connected client websockets. Each client gets a
// buffered send channel; a slow client is dropped rather than allowed to
// block the rest.
type Broadcaster struct {
	clients map[*Client]struct{}
	mu      sync.Mutex
	logger  *logging.ChanneledLogger
}

// Client is one connected websocket.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *logging.ChanneledLogger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register wraps an upgraded connection, starts its write pump, and adds
// it to the fan-out set.
func (b *Broadcaster) Register(conn *websocket.Conn) *Client {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 16),
	}

	b.mu.Lock()
	b.clients[client] = struct{}{}
	count := len(b.clients)
	b.mu.Unlock()

	b.logger.Server().Debug("Websocket client registered", "clients", count)
	go client.writePump(b)
	return client
}

// Unregister removes a client and closes its connection.
func (b *Broadcaster) Unregister(client *Client) {
	b.mu.Lock()
	if _, exists := b.clients[client]; exists {
		delete(b.clients, client)
		close(client.send)
	}
	count := len(b.clients)
	b.mu.Unlock()

	client.conn.Close()
	b.logger.Server().Debug("Websocket client unregistered", "clients", count)
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Broadcast sends an event to every connected client.
func (b *Broadcaster) Broadcast(event messages.ClientEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Server().Error("Failed to marshal client event", "type", string(event.Type), "error", err.Error())
		return
	}

	b.mu.Lock()
	var slow []*Client
	for client := range b.clients {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	b.mu.Unlock()

	for _, client := range slow {
		b.logger.Server().Warn("Dropping slow websocket client")
		b.Unregister(client)
	}
}

func (c *Client) writePump(b *Broadcaster) {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			b.Unregister(c)
			return
		}
	}
}

// ReadLoop consumes (and discards) client frames so pings and close
// frames are processed, unregistering on error.
func (b *Broadcaster) ReadLoop(client *Client) {
	defer b.Unregister(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
