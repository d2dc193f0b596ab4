package ws

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"betmate/infrastructure"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// sendBuffer is the per-connection outbound queue size. Slow consumers
// drop pushes rather than block the hub.
const sendBuffer = 32

// clientMsg is what connected clients send: group subscriptions and pings
type clientMsg struct {
	Type    string `json:"type"`
	GroupID int64  `json:"groupId,omitempty"`
}

// serverMsg is the envelope pushed to clients
type serverMsg struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// client owns a single connection. All writes go through the send channel
// so only the write loop touches the conn; gorilla/websocket allows at most
// one concurrent writer.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func (c *client) writeLoop() {
	for {
		select {
		case payload := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// enqueue queues a payload for the write loop, dropping it if the client
// is gone or its buffer is full
func (c *client) enqueue(payload []byte) {
	select {
	case <-c.done:
	case c.send <- payload:
	default:
	}
}

// Hub tracks WebSocket connections per user and per watched group. Every
// instance runs its own hub; cross-instance delivery goes through the Redis
// push channel.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	users    map[int64]map[*client]struct{}
	groups   map[int64]map[*client]struct{}
}

// NewHub creates a new hub
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		users:    make(map[int64]map[*client]struct{}),
		groups:   make(map[int64]map[*client]struct{}),
	}
}

var pongPayload = []byte(`{"type":"pong"}`)

// HandleWS upgrades the connection and serves it until the client leaves.
// The authenticated user is identified by the X-User-ID header.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	go c.writeLoop()
	defer close(c.done)

	h.register(userID, c)
	defer h.unregister(userID, c)

	for {
		var msg clientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.subscribe(msg.GroupID, c)
		case "unsubscribe":
			h.unsubscribe(msg.GroupID, c)
		case "ping":
			c.enqueue(pongPayload)
		}
	}
}

func (h *Hub) register(userID int64, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[*client]struct{})
	}
	h.users[userID][c] = struct{}{}
}

func (h *Hub) unregister(userID int64, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.users[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, userID)
		}
	}
	for groupID, set := range h.groups {
		delete(set, c)
		if len(set) == 0 {
			delete(h.groups, groupID)
		}
	}
}

func (h *Hub) subscribe(groupID int64, c *client) {
	if groupID <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.groups[groupID]; !ok {
		h.groups[groupID] = make(map[*client]struct{})
	}
	h.groups[groupID][c] = struct{}{}
}

func (h *Hub) unsubscribe(groupID int64, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.groups[groupID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.groups, groupID)
		}
	}
}

// Deliver routes a push message to the matching local connections
func (h *Hub) Deliver(msg infrastructure.PushMessage) {
	payload, err := json.Marshal(serverMsg{Kind: msg.Kind, Data: msg.Data})
	if err != nil {
		log.WithError(err).Error("Failed to marshal push envelope")
		return
	}

	h.mu.RLock()
	var clients []*client
	if msg.UserID != nil {
		for c := range h.users[*msg.UserID] {
			clients = append(clients, c)
		}
	}
	if msg.GroupID != nil {
		for c := range h.groups[*msg.GroupID] {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(payload)
	}
}
