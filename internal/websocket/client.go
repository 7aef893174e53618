package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is the middleman between a dashboard websocket connection and
// the hub. Clients may subscribe to specific campaign ids; with no
// subscriptions they receive every broadcast.
type Client struct {
	ID string

	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	logger *logrus.Logger

	RemoteAddr  string
	UserAgent   string
	ConnectedAt time.Time

	subMu     sync.RWMutex
	campaigns map[string]bool
}

// HandleWebSocket upgrades the request and attaches the client to the hub.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		conn:        conn,
		send:        make(chan []byte, 256),
		hub:         hub,
		logger:      hub.logger,
		RemoteAddr:  r.RemoteAddr,
		UserAgent:   r.Header.Get("User-Agent"),
		ConnectedAt: time.Now(),
		campaigns:   make(map[string]bool),
	}

	select {
	case client.hub.register <- client:
	case <-client.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// disconnect hands the client back to the hub, or gives up immediately if
// the hub has already stopped and nothing will receive it.
func (c *Client) disconnect() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

func (c *Client) subscribedTo(campaignID string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	if len(c.campaigns) == 0 {
		return true
	}
	return c.campaigns[campaignID]
}

func (c *Client) setSubscriptions(campaignIDs []string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.campaigns = make(map[string]bool, len(campaignIDs))
	for _, id := range campaignIDs {
		c.campaigns[id] = true
	}
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.disconnect()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).WithField("client_id", c.ID).Warn("WebSocket read error")
			}
			return
		}

		var req subscriptionRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.logger.WithField("client_id", c.ID).Debug("Ignoring malformed WebSocket message")
			continue
		}

		if req.Type == MessageTypeSubscriptionUpdate {
			c.setSubscriptions(req.Campaigns)
			c.logger.WithFields(logrus.Fields{
				"client_id": c.ID,
				"campaigns": req.Campaigns,
			}).Debug("WebSocket subscriptions updated")
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
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

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
