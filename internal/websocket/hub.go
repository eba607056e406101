// Package websocket pushes dashboard state to connected browsers so the
// frontend never has to poll the REST API.
package websocket

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/awslens/awslens/internal/metrics"
)

const (
	// 64KB buffers to handle large state messages
	readBufferSize  = 64 * 1024
	writeBufferSize = 64 * 1024

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	// sendQueueSize is the per-client buffer; clients that fall this far
	// behind are disconnected rather than slowing everyone down.
	sendQueueSize = 64
)

// Message is the envelope for every frame sent to clients.
type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// Client is one connected browser.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// Hub maintains the set of active clients and broadcasts state updates.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu             sync.RWMutex
	getState       func() any
	allowedOrigins []string
}

// NewHub creates a hub. getState supplies the snapshot sent to clients on
// connect and on explicit requestData messages; it may be nil until wired.
func NewHub(getState func() any) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		getState:   getState,
	}
}

// SetStateGetter replaces the state snapshot function.
func (h *Hub) SetStateGetter(getState func() any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.getState = getState
}

// SetAllowedOrigins sets the origins accepted during the upgrade handshake.
// An empty list allows same-host connections only; "*" allows everything.
func (h *Hub) SetAllowedOrigins(origins []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.allowedOrigins = append([]string{}, origins...)
}

// Run processes register/unregister/broadcast events until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			metrics.WSClients.Set(float64(count))
			log.Info().Str("client", client.id).Int("clients", count).Msg("WebSocket client connected")

			h.sendInitialState(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			metrics.WSClients.Set(float64(count))
			log.Info().Str("client", client.id).Int("clients", count).Msg("WebSocket client disconnected")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// client cannot keep up; drop it
					h.mu.Lock()
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
					count := len(h.clients)
					h.mu.Unlock()
					metrics.WSClients.Set(float64(count))
					log.Warn().Str("client", client.id).Msg("WebSocket client too slow, dropping")
				}
			}

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSClients.Set(0)
	log.Info().Msg("WebSocket hub stopped")
}

// sendInitialState greets a new client and pushes the current snapshot.
func (h *Hub) sendInitialState(client *Client) {
	h.mu.RLock()
	getState := h.getState
	h.mu.RUnlock()

	welcome, err := marshalMessage("welcome", map[string]string{"message": "Connected to AWSLens"})
	if err == nil {
		select {
		case client.send <- welcome:
		default:
		}
	}

	if getState == nil {
		return
	}
	initial, err := marshalMessage("initialState", getState())
	if err != nil {
		log.Error().Err(err).Str("client", client.id).Msg("Failed to marshal initial state")
		return
	}
	select {
	case client.send <- initial:
	default:
		log.Warn().Str("client", client.id).Msg("Client send buffer full, skipping initial state")
	}
}

// HandleWebSocket upgrades an HTTP request and starts the client pumps.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  readBufferSize,
		WriteBufferSize: writeBufferSize,
		CheckOrigin:     h.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("origin", r.Header.Get("Origin")).Msg("WebSocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		id:   uuid.New().String(),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// checkOrigin validates the Origin header against the allowlist. Requests
// without an Origin header (curl, native clients) are accepted.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	h.mu.RLock()
	allowed := h.allowedOrigins
	h.mu.RUnlock()

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	// Same-host connections are always fine.
	if strings.EqualFold(parsed.Host, r.Host) {
		return true
	}

	for _, a := range allowed {
		if a == "*" {
			return true
		}
		if strings.EqualFold(strings.TrimSuffix(a, "/"), strings.TrimSuffix(origin, "/")) {
			return true
		}
	}

	log.Warn().Str("origin", origin).Str("host", r.Host).Msg("WebSocket origin rejected")
	return false
}

// BroadcastState pushes a full state snapshot to every client.
func (h *Hub) BroadcastState(state any) {
	h.broadcastMessage("rawData", state)
}

// BroadcastAlert notifies clients that an alert fired.
func (h *Hub) BroadcastAlert(alert any) {
	h.broadcastMessage("alert", alert)
}

// BroadcastAlertResolved notifies clients that an alert cleared.
func (h *Hub) BroadcastAlertResolved(alertID string) {
	h.broadcastMessage("alertResolved", map[string]string{"alertId": alertID})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastMessage(msgType string, data any) {
	payload, err := marshalMessage(msgType, data)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("Failed to marshal WebSocket message")
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		log.Warn().Str("type", msgType).Msg("WebSocket broadcast channel full, dropping message")
	}
}

func marshalMessage(msgType string, data any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Data:      sanitizeData(data),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// readPump consumes client messages until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("client", c.id).Msg("WebSocket read error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Debug().Err(err).Str("client", c.id).Msg("Ignoring malformed WebSocket message")
			continue
		}

		switch msg.Type {
		case "ping":
			if pong, err := marshalMessage("pong", map[string]int64{"timestamp": time.Now().Unix()}); err == nil {
				select {
				case c.send <- pong:
				default:
				}
			}
		case "requestData":
			c.hub.mu.RLock()
			getState := c.hub.getState
			c.hub.mu.RUnlock()
			if getState == nil {
				continue
			}
			if data, err := marshalMessage("rawData", getState()); err == nil {
				select {
				case c.send <- data:
				default:
				}
			}
		default:
			log.Debug().Str("client", c.id).Str("type", msg.Type).Msg("Unhandled WebSocket message type")
		}
	}
}

// writePump writes queued messages and keeps the connection alive with pings.
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// drain anything already queued
			for i := len(c.send); i > 0; i-- {
				select {
				case queued := <-c.send:
					if err := c.conn.WriteMessage(websocket.TextMessage, queued); err != nil {
						return
					}
				default:
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sanitizeData replaces NaN/Inf values with nil so marshaling never fails.
// The round-trip through json converts structs to plain maps first.
func sanitizeData(data any) any {
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return data
	}

	return sanitizeValue(decoded)
}

func sanitizeValue(data any) any {
	switch v := data.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case map[string]any:
		for k, val := range v {
			v[k] = sanitizeValue(val)
		}
		return v
	case []any:
		for i, val := range v {
			v[i] = sanitizeValue(val)
		}
		return v
	default:
		return v
	}
}
