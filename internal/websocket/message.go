package websocket

import (
	"encoding/json"
	"time"
)

// Message types pushed to dashboard clients.
const (
	MessageTypeConnection          = "connection"
	MessageTypeHeartbeat           = "heartbeat"
	MessageTypeOpportunityDetected = "opportunity_detected"
	MessageTypePerformanceUpdate   = "performance_update"
	MessageTypeMonitorStarted      = "monitor_started"
	MessageTypeMonitorStopped      = "monitor_stopped"
	MessageTypeSubscriptionUpdate  = "subscription_update"
)

// Message is the envelope for everything sent over the wire.
type Message struct {
	Type       string                 `json:"type"`
	CampaignID string                 `json:"campaign_id,omitempty"`
	Data       map[string]interface{} `json:"data"`
	Timestamp  time.Time              `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes, stamping the send time.
func (m Message) ToJSON() []byte {
	m.Timestamp = time.Now().UTC()
	data, _ := json.Marshal(m)
	return data
}

// subscriptionRequest is what clients send to narrow their feed to
// specific campaigns. An empty campaign list means everything.
type subscriptionRequest struct {
	Type      string   `json:"type"`
	Campaigns []string `json:"campaigns"`
}
