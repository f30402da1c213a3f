package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// An idle review session still needs its socket kept alive: the writer
// pings on a timer and the reader treats a missing pong as a dead client.
const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = (wsPongWait * 9) / 10
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type estimatePayload struct {
	State     string      `json:"state"`
	Ownership [][]float64 `json:"ownership,omitempty"`
	Display   [][]float64 `json:"display,omitempty"`
	Score     float64     `json:"score"`
	WinRate   float64     `json:"win_rate,omitempty"`
	HasScore  bool        `json:"has_score"`
}

type removalPayload struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Removed bool `json:"removed"`
}

type Hub struct {
	mu                sync.Mutex
	clients           map[*Client]struct{}
	broadcastEstimate chan estimatePayload
	broadcastRemoval  chan removalPayload
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:           make(map[*Client]struct{}),
		broadcastEstimate: make(chan estimatePayload, 16),
		broadcastRemoval:  make(chan removalPayload, 64),
	}
}

func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcastEstimate:
			h.mu.Lock()
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "estimate", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		case payload := <-h.broadcastRemoval:
			h.mu.Lock()
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "removal", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) PublishEstimate(payload estimatePayload) {
	select {
	case h.broadcastEstimate <- payload:
	default:
	}
}

func (h *Hub) PublishRemoval(payload removalPayload) {
	select {
	case h.broadcastRemoval <- payload:
	default:
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (c *Client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func serveWS(hub *Hub, controller *ReviewController, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 16)}
	hub.Register(client)

	if summary, state, err := controller.Estimate(); err == nil {
		client.sendJSON(wsMessage{Type: "estimate", Payload: mustMarshal(estimatePayloadFrom(summary, state))})
	}

	go client.writePump()
	client.readPump()
}

// writePump drains the send queue onto the socket and pings whenever the
// connection has been idle for a full interval. Exits on the first write
// failure or when the hub closes the queue.
func (c *Client) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames (review clients only listen) while the
// pong handler keeps pushing the read deadline out. A deadline hit or any
// read error unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func estimatePayloadFrom(summary EstimateSummary, state EstimatorState) estimatePayload {
	payload := estimatePayload{State: state.String()}
	if summary.Ownership.Width() == 0 {
		return payload
	}
	payload.Ownership = summary.Ownership.Rows()
	payload.Display = summary.Display.Rows()
	payload.Score = summary.Score
	payload.WinRate = summary.WinRate
	payload.HasScore = true
	return payload
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
