package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
	"golang.org/x/oauth2/clientcredentials"
)

// SpotifyConfig configures the Spotify collector. ClientID/ClientSecret are
// the app credentials for the client-credentials token flow; StatsURL points
// at the artist-stats endpoint campaigns are mapped to.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	StatsURL     string
}

// SpotifyCollector pulls streaming metrics from the Spotify stats API using
// an OAuth2 client-credentials token source. The token source caches and
// refreshes tokens internally, so each Collect reuses the live token.
type SpotifyCollector struct {
	config SpotifyConfig
	client *http.Client
	logger *logrus.Logger
}

// NewSpotifyCollector creates a Spotify collector.
func NewSpotifyCollector(cfg SpotifyConfig, logger *logrus.Logger) *SpotifyCollector {
	if cfg.TokenURL == "" {
		cfg.TokenURL = "https://accounts.spotify.com/api/token"
	}

	oauthConfig := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	return &SpotifyCollector{
		config: cfg,
		client: oauthConfig.Client(context.Background()),
		logger: logger,
	}
}

// Platform returns spotify.
func (c *SpotifyCollector) Platform() analytics.Platform {
	return analytics.PlatformSpotify
}

// spotifyStats is the stats endpoint response shape.
type spotifyStats struct {
	Growth24h         *float64 `json:"growth_24h"`
	Growth7d          *float64 `json:"growth_7d"`
	Growth30d         *float64 `json:"growth_30d"`
	Velocity          *float64 `json:"velocity"`
	TotalStreams      float64  `json:"total_streams"`
	DailyStreams      float64  `json:"daily_streams"`
	StreamingVelocity float64  `json:"streaming_velocity"`
	UniqueListeners   float64  `json:"unique_listeners"`
	PlaylistAdds      float64  `json:"playlist_adds"`
	PlaylistReaches   float64  `json:"playlist_reaches"`
}

// Collect fetches the campaign's streaming stats.
func (c *SpotifyCollector) Collect(ctx context.Context, campaignID string) (analytics.RawPayload, error) {
	endpoint := fmt.Sprintf("%s?campaign_id=%s", c.config.StatsURL, url.QueryEscape(campaignID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return analytics.RawPayload{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return analytics.RawPayload{}, fmt.Errorf("spotify stats request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return analytics.RawPayload{}, fmt.Errorf("spotify stats request: status %d", resp.StatusCode)
	}

	var stats spotifyStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return analytics.RawPayload{}, fmt.Errorf("decode spotify stats: %w", err)
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"campaign_id":   campaignID,
			"daily_streams": stats.DailyStreams,
		}).Debug("Collected Spotify metrics")
	}

	return analytics.RawPayload{
		Growth24h: stats.Growth24h,
		Growth7d:  stats.Growth7d,
		Growth30d: stats.Growth30d,
		Velocity:  stats.Velocity,
		Streaming: &analytics.StreamingRaw{
			TotalStreams:      stats.TotalStreams,
			DailyStreams:      stats.DailyStreams,
			StreamingVelocity: stats.StreamingVelocity,
			UniqueListeners:   stats.UniqueListeners,
			PlaylistAdds:      stats.PlaylistAdds,
			PlaylistReaches:   stats.PlaylistReaches,
		},
	}, nil
}
