package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestMessageToJSON(t *testing.T) {
	raw := Message{
		Type:       MessageTypeOpportunityDetected,
		CampaignID: "camp-1",
		Data:       map[string]interface{}{"confidence": 88.0},
	}.ToJSON()

	var decoded Message
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, MessageTypeOpportunityDetected, decoded.Type)
	assert.Equal(t, "camp-1", decoded.CampaignID)
	assert.Equal(t, 88.0, decoded.Data["confidence"])
	assert.False(t, decoded.Timestamp.IsZero())
}

func TestClientSubscriptionFilter(t *testing.T) {
	client := &Client{campaigns: make(map[string]bool)}

	// No subscriptions means everything.
	assert.True(t, client.subscribedTo("camp-1"))
	assert.True(t, client.subscribedTo("camp-2"))

	client.setSubscriptions([]string{"camp-1"})
	assert.True(t, client.subscribedTo("camp-1"))
	assert.False(t, client.subscribedTo("camp-2"))

	// An explicit empty update clears back to everything.
	client.setSubscriptions(nil)
	assert.True(t, client.subscribedTo("camp-2"))
}

func TestHubBroadcastOpportunity(t *testing.T) {
	hub := NewHub(quietLogger())

	subscribed := &Client{ID: "a", send: make(chan []byte, 1), campaigns: map[string]bool{"camp-1": true}}
	other := &Client{ID: "b", send: make(chan []byte, 1), campaigns: map[string]bool{"camp-9": true}}
	hub.clients[subscribed] = true
	hub.clients[other] = true

	hub.BroadcastOpportunity(analytics.Opportunity{
		ID:         "opp-1",
		CampaignID: "camp-1",
		Urgency:    analytics.UrgencyCritical,
	})

	select {
	case raw := <-subscribed.send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageTypeOpportunityDetected, msg.Type)
		assert.Equal(t, "camp-1", msg.CampaignID)
	case <-time.After(time.Second):
		t.Fatal("subscribed client did not receive the opportunity")
	}

	assert.Empty(t, other.send, "unsubscribed client should not receive the opportunity")
}

func TestHubBroadcastPerformance(t *testing.T) {
	hub := NewHub(quietLogger())

	client := &Client{ID: "a", send: make(chan []byte, 1), campaigns: map[string]bool{"camp-1": true}}
	hub.clients[client] = true

	hub.BroadcastPerformance("camp-1", []*analytics.PlatformMetrics{
		{Platform: analytics.PlatformSpotify, CampaignID: "camp-1"},
	}, 72.5)

	select {
	case raw := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageTypePerformanceUpdate, msg.Type)
		assert.Equal(t, "camp-1", msg.CampaignID)
		assert.Equal(t, 72.5, msg.Data["overall_viral_score"])
	case <-time.After(time.Second):
		t.Fatal("subscribed client did not receive the performance update")
	}
}

func TestClientDisconnectAfterHubStop(t *testing.T) {
	hub := NewHub(quietLogger())
	client := &Client{ID: "a", hub: hub, send: make(chan []byte, 1)}

	// Nothing is draining the unregister channel once the hub stops;
	// disconnect must not block on it.
	hub.Stop()

	returned := make(chan struct{})
	go func() {
		client.disconnect()
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("disconnect blocked after hub stop")
	}
}

func TestHubStatsTracksClients(t *testing.T) {
	hub := NewHub(quietLogger())

	var observed int
	hub.SetClientCountHook(func(n int) { observed = n })

	client := &Client{ID: "a", send: make(chan []byte, 2)}
	hub.registerClient(client)
	assert.Equal(t, 1, hub.Stats().ConnectedClients)
	assert.Equal(t, 1, observed)

	hub.unregisterClient(client)
	assert.Equal(t, 0, hub.Stats().ConnectedClients)
	assert.Equal(t, 0, observed)

	// Unregistering twice is a no-op.
	hub.unregisterClient(client)
}
