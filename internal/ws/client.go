package ws

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/licensedesk/api/internal/middleware"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Per-client outbound buffer; a client this far behind is dropped
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Authenticated by API key, not by origin
	},
}

// Client represents a single feed subscriber
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	agentID uuid.UUID
	send    chan []byte
	log     *zap.Logger
}

// ReadPump watches the connection for close and pong frames.
// Feed clients never send application messages.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read error", zap.Error(err))
			}
			break
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame so clients can parse each as JSON
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// ServeWS upgrades an authenticated request to a ledger feed.
// Endpoint: WS /ws/ledger?key=API_KEY[&agentId=UUID]
// Browsers cannot set headers on WebSocket handshakes, so the key may also
// arrive as a query parameter.
func ServeWS(hub *Hub, apiKey string, log *zap.Logger, w http.ResponseWriter, r *http.Request) {
	if apiKey == "" {
		http.Error(w, "server API key is not configured", http.StatusInternalServerError)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		key = middleware.RequestAPIKey(r)
	}
	if !middleware.KeyMatches(apiKey, key) {
		http.Error(w, "invalid API key", http.StatusUnauthorized)
		return
	}

	agentID := AllAgents
	if s := r.URL.Query().Get("agentId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid agentId", http.StatusBadRequest)
			return
		}
		agentID = id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:     hub,
		conn:    conn,
		agentID: agentID,
		send:    make(chan []byte, sendBuffer),
		log:     log,
	}
	if !hub.join(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
