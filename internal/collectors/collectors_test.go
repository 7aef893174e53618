package collectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewSimulatedCollector(analytics.PlatformTikTok, 1))
	registry.Register(NewSimulatedCollector(analytics.PlatformSpotify, 2))

	c, err := registry.Get(analytics.PlatformTikTok)
	require.NoError(t, err)
	assert.Equal(t, analytics.PlatformTikTok, c.Platform())

	_, err = registry.Get(analytics.PlatformEmail)
	assert.Error(t, err)

	// Platforms come back in the canonical enum order.
	assert.Equal(t, []analytics.Platform{analytics.PlatformSpotify, analytics.PlatformTikTok}, registry.Platforms())
}

func TestSimulatedCollector_MatchesPlatformKind(t *testing.T) {
	tests := []struct {
		platform analytics.Platform
		check    func(t *testing.T, p analytics.RawPayload)
	}{
		{analytics.PlatformSpotify, func(t *testing.T, p analytics.RawPayload) {
			assert.NotNil(t, p.Streaming)
			assert.Nil(t, p.Social)
			assert.Nil(t, p.Email)
		}},
		{analytics.PlatformInstagram, func(t *testing.T, p analytics.RawPayload) {
			assert.NotNil(t, p.Social)
			assert.Nil(t, p.Streaming)
		}},
		{analytics.PlatformEmail, func(t *testing.T, p analytics.RawPayload) {
			assert.NotNil(t, p.Email)
			assert.Nil(t, p.Social)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			c := NewSimulatedCollector(tt.platform, 42)

			payload, err := c.Collect(context.Background(), "camp-1")
			require.NoError(t, err)
			require.NotNil(t, payload.Growth24h)
			require.NotNil(t, payload.Velocity)
			tt.check(t, payload)

			// A simulated payload always normalizes cleanly.
			_, err = analytics.NewNormalizer(logrus.New()).Normalize("camp-1", tt.platform, payload)
			assert.NoError(t, err)
		})
	}
}

func TestSimulatedCollector_SeededRunsAreReproducible(t *testing.T) {
	first := NewSimulatedCollector(analytics.PlatformTikTok, 7)
	second := NewSimulatedCollector(analytics.PlatformTikTok, 7)

	a, err := first.Collect(context.Background(), "camp-1")
	require.NoError(t, err)
	b, err := second.Collect(context.Background(), "camp-1")
	require.NoError(t, err)

	assert.Equal(t, *a.Growth24h, *b.Growth24h)
	assert.Equal(t, a.Social.Mentions, b.Social.Mentions)
}

func TestHTTPCollector_Collect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics/tiktok", r.URL.Path)
		assert.Equal(t, "camp-1", r.URL.Query().Get("campaign_id"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		w.Write([]byte(`{
			"growth_24h": 12,
			"growth_7d": 30,
			"growth_30d": 75,
			"velocity": 1.8,
			"social": {"engagement_rate": 9.5, "shares": 120, "reach": 40000, "mentions": 260}
		}`))
	}))
	defer server.Close()

	c := NewHTTPCollector(analytics.PlatformTikTok, server.URL, "key", 0, logrus.New())

	payload, err := c.Collect(context.Background(), "camp-1")
	require.NoError(t, err)
	require.NotNil(t, payload.Growth24h)
	assert.Equal(t, 12.0, *payload.Growth24h)
	require.NotNil(t, payload.Social)
	assert.Equal(t, 260.0, payload.Social.Mentions)
}

func TestHTTPCollector_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewHTTPCollector(analytics.PlatformEmail, server.URL, "", 0, logrus.New())

	_, err := c.Collect(context.Background(), "camp-1")
	assert.Error(t, err)
}

func TestSpotifyCollector_Collect(t *testing.T) {
	var tokenRequests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			tokenRequests++
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "tok", "token_type": "Bearer", "expires_in": 3600}`))
		case "/stats":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Write([]byte(`{
				"growth_24h": 5, "growth_7d": 18, "growth_30d": 40, "velocity": 1.1,
				"total_streams": 120000, "daily_streams": 4200, "streaming_velocity": 900,
				"unique_listeners": 33000, "playlist_adds": 40, "playlist_reaches": 700000
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := NewSpotifyCollector(SpotifyConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     server.URL + "/token",
		StatsURL:     server.URL + "/stats",
	}, logrus.New())

	payload, err := c.Collect(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, tokenRequests)
	require.NotNil(t, payload.Streaming)
	assert.Equal(t, 4200.0, payload.Streaming.DailyStreams)
	assert.Equal(t, analytics.PlatformSpotify, c.Platform())
}
