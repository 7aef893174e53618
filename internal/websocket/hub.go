package websocket

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
)

// Hub maintains the set of active dashboard clients and fans messages out
// to them. It implements the monitor service's Broadcaster.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger *logrus.Logger

	mu    sync.RWMutex
	stats HubStats

	// Optional gauge hook, called with the current client count.
	onClientCount func(n int)
}

// HubStats is a point-in-time view of hub activity.
type HubStats struct {
	ConnectedClients int       `json:"connected_clients"`
	TotalConnections int64     `json:"total_connections"`
	MessagesSent     int64     `json:"messages_sent"`
	LastActivity     time.Time `json:"last_activity"`
}

// NewHub creates a websocket hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
		stats:      HubStats{LastActivity: time.Now()},
	}
}

// SetClientCountHook installs a callback invoked whenever the number of
// connected clients changes. Used to feed the websocket_clients gauge.
func (h *Hub) SetClientCountHook(hook func(n int)) {
	h.onClientCount = hook
}

// Run processes registration and broadcast events until Stop is called.
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ticker.C:
			h.sendHeartbeat()

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastOpportunity pushes a detected opportunity to subscribed clients.
func (h *Hub) BroadcastOpportunity(opportunity analytics.Opportunity) {
	h.BroadcastToCampaign(opportunity.CampaignID, Message{
		Type:       MessageTypeOpportunityDetected,
		CampaignID: opportunity.CampaignID,
		Data: map[string]interface{}{
			"opportunity": opportunity,
		},
	})
}

// BroadcastPerformance pushes a fresh performance reading to subscribed
// clients. Fed by the monitor's real-time refresh tick.
func (h *Hub) BroadcastPerformance(campaignID string, records []*analytics.PlatformMetrics, overallScore float64) {
	h.BroadcastToCampaign(campaignID, Message{
		Type:       MessageTypePerformanceUpdate,
		CampaignID: campaignID,
		Data: map[string]interface{}{
			"records":             records,
			"overall_viral_score": overallScore,
		},
	})
}

// BroadcastToCampaign sends a message to clients subscribed to the campaign.
// Clients with no explicit subscriptions receive everything.
func (h *Hub) BroadcastToCampaign(campaignID string, message Message) {
	payload := message.ToJSON()

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if !client.subscribedTo(campaignID) {
			continue
		}
		select {
		case client.send <- payload:
			h.stats.MessagesSent++
		default:
			// Slow client; drop the message rather than block the hub.
			h.logger.WithField("client_id", client.ID).Warn("WebSocket send buffer full, dropping message")
		}
	}
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(message Message) {
	select {
	case h.broadcast <- message.ToJSON():
	default:
		h.logger.Warn("WebSocket broadcast queue full, dropping message")
	}
}

// Stats returns a copy of the hub statistics.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stats := h.stats
	stats.ConnectedClients = len(h.clients)
	return stats
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.stats.TotalConnections++
	h.stats.ConnectedClients = len(h.clients)
	h.stats.LastActivity = time.Now()
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"client_id":         client.ID,
		"remote_addr":       client.RemoteAddr,
		"connected_clients": count,
	}).Info("WebSocket client connected")

	welcome := Message{
		Type: MessageTypeConnection,
		Data: map[string]interface{}{
			"status":    "connected",
			"client_id": client.ID,
		},
	}
	client.send <- welcome.ToJSON()

	if h.onClientCount != nil {
		h.onClientCount(count)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.stats.ConnectedClients = len(h.clients)
	h.stats.LastActivity = time.Now()
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"client_id":         client.ID,
		"connected_clients": count,
	}).Info("WebSocket client disconnected")

	if h.onClientCount != nil {
		h.onClientCount(count)
	}
}

func (h *Hub) broadcastMessage(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
			h.stats.MessagesSent++
		default:
			h.logger.WithField("client_id", client.ID).Warn("WebSocket send buffer full, dropping message")
		}
	}
}

func (h *Hub) sendHeartbeat() {
	h.broadcastMessage(Message{
		Type: MessageTypeHeartbeat,
		Data: map[string]interface{}{
			"connected_clients": h.Stats().ConnectedClients,
		},
	}.ToJSON())
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.logger.Info("WebSocket hub stopped")
}
