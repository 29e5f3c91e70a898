// Package broadcast pushes JSON events to WebSocket subscribers.
package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"clickboard/pkg/logger"
	"clickboard/pkg/metrics"

	"github.com/gorilla/websocket"
)

const (
	outboundBuffer = 256
	clientBuffer   = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	eventJoinRoom = "joinRoom"
)

// Frame is the wire format of every pushed event.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outbound struct {
	sessionID string // empty for everybody
	payload   []byte
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub fans events out to connected clients. A client whose buffer is full is
// dropped instead of blocking the others.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}

	outbound chan outbound
}

// NewHub creates a hub. Call Run to start delivering events.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		outbound: make(chan outbound, outboundBuffer),
	}
}

// Run delivers queued events until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.outbound:
			h.deliver(msg)
		}
	}
}

// Broadcast sends event to every connected client.
func (h *Hub) Broadcast(event string, payload interface{}) {
	h.enqueue("", event, payload)
}

// BroadcastToSession sends event to the clients identified by sessionID.
// Nothing happens when no client matches.
func (h *Hub) BroadcastToSession(sessionID, event string, payload interface{}) {
	if sessionID == "" {
		return
	}
	h.enqueue(sessionID, event, payload)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) enqueue(sessionID, event string, payload interface{}) {
	data, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		logger.ErrorCtx(context.Background(), "failed to marshal %s event: %v", event, err)
		return
	}
	select {
	case h.outbound <- outbound{sessionID: sessionID, payload: data}:
	default:
		logger.WarnCtx(context.Background(), "broadcast queue full, dropping %s event", event)
	}
}

func (h *Hub) deliver(msg outbound) {
	type slowClient struct {
		c         *client
		sessionID string
	}
	var slow []slowClient

	h.mu.RLock()
	for c := range h.clients {
		if msg.sessionID != "" && c.sessionID != msg.sessionID {
			continue
		}
		select {
		case c.send <- msg.payload:
		default:
			// sessionID is written by join under the write lock
			slow = append(slow, slowClient{c: c, sessionID: c.sessionID})
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		logger.WarnCtx(context.Background(), "dropping slow websocket client (session %q)", s.sessionID)
		h.remove(s.c)
	}
}

// ServeWS upgrades the request and registers the connection. The session is
// taken from the sessionId query parameter or the sessionid header.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorCtx(r.Context(), "failed to upgrade to websocket: %v", err)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = r.Header.Get("sessionid")
	}

	c := &client{
		conn:      conn,
		send:      make(chan []byte, clientBuffer),
		sessionID: sessionID,
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	metrics.BroadcastClients.Set(float64(len(h.clients)))
	h.mu.Unlock()

	logger.DebugCtx(r.Context(), "websocket client connected from %s (session %q)", conn.RemoteAddr(), sessionID)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.BroadcastClients.Set(float64(len(h.clients)))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	metrics.BroadcastClients.Set(0)
}

func (h *Hub) join(c *client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.sessionID = sessionID
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnCtx(context.Background(), "websocket read error: %v", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil || msg.Event != eventJoinRoom {
			continue
		}
		if sessionID := parseSessionID(msg.Data); sessionID != "" {
			h.join(c, sessionID)
		}
	}
}

// parseSessionID accepts either "id" or {"sessionId":"id"}.
func parseSessionID(data json.RawMessage) string {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id
	}
	var obj struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		return obj.SessionID
	}
	return ""
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
