package services

import (
	"context"
	"sync"
	"time"

	"quizblog/auth"
	"quizblog/logging"
	"quizblog/metrics"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Hub keeps the websocket clients of the staff dashboard and pushes events to them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	done       chan struct{}
}

type Client struct {
	hub    *Hub
	id     string
	socket *websocket.Conn
	send   chan []byte
	userID string
	role   auth.Role
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sentAt"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Serve runs the registration loop until ctx is cancelled, then closes every client.
func (h *Hub) Serve(ctx context.Context) error {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mutex.Unlock()
			metrics.HubClients.Set(float64(n))
			logging.Debug().Str("client_id", client.id).Str("user_id", client.userID).
				Int("clients", n).Msg("Notification client registered")

		case client := <-h.unregister:
			h.drop(client)
		}
	}
}

func (h *Hub) String() string { return "notification-hub" }

func (h *Hub) closeAll() {
	h.mutex.Lock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
	h.mutex.Unlock()
	close(h.done)
	metrics.HubClients.Set(0)
}

func (h *Hub) drop(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mutex.Unlock()
	metrics.HubClients.Set(float64(n))
	logging.Debug().Str("client_id", client.id).Int("clients", n).Msg("Notification client unregistered")
}

// Publish sends an event to every connected client. A client whose buffer is
// full is disconnected instead of blocking the publisher.
func (h *Hub) Publish(eventType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: eventType, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		logging.Error().Err(err).Str("event", eventType).Msg("Failed to encode hub event")
		return
	}

	var slow []*Client
	h.mutex.RLock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range slow {
		logging.Warn().Str("client_id", client.id).Msg("Notification client too slow, disconnecting")
		h.drop(client)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// RegisterClient attaches an upgraded connection to the hub and starts its pumps.
// It returns nil once the hub has stopped.
func (h *Hub) RegisterClient(conn *websocket.Conn, identity auth.Identity) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, sendBuffer),
		userID: identity.UserID,
		role:   identity.Role,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Debug().Err(err).Str("client_id", c.id).Msg("Notification socket read error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong", Payload: "pong", SentAt: time.Now().UTC()})
		c.hub.mutex.RLock()
		if c.hub.clients[c] {
			select {
			case c.send <- data:
			default:
			}
		}
		c.hub.mutex.RUnlock()
	default:
		logging.Debug().Str("client_id", c.id).Str("type", msg.Type).Msg("Ignoring client message")
	}
}
