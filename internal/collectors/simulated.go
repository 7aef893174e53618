package collectors

import (
	"context"
	"math/rand"
	"sync"

	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
)

// SimulatedCollector fabricates plausible raw payloads for local runs and
// tests. It is the only place randomness is allowed to stand in for an
// external data source, and it is seeded so runs are reproducible.
type SimulatedCollector struct {
	platform analytics.Platform
	rng      *rand.Rand
	mu       sync.Mutex
}

// NewSimulatedCollector creates a seeded simulator for a platform.
func NewSimulatedCollector(platform analytics.Platform, seed int64) *SimulatedCollector {
	return &SimulatedCollector{
		platform: platform,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Platform returns the simulated platform.
func (c *SimulatedCollector) Platform() analytics.Platform {
	return c.platform
}

// Collect fabricates one payload matching the platform's kind.
func (c *SimulatedCollector) Collect(ctx context.Context, campaignID string) (analytics.RawPayload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	growth24h := c.rng.Float64()*40 - 10
	growth7d := c.rng.Float64()*80 - 15
	growth30d := c.rng.Float64()*150 - 20
	velocity := c.rng.Float64() * 2.5

	payload := analytics.RawPayload{
		Growth24h: &growth24h,
		Growth7d:  &growth7d,
		Growth30d: &growth30d,
		Velocity:  &velocity,
	}

	switch c.platform.Kind() {
	case analytics.KindStreaming:
		payload.Streaming = &analytics.StreamingRaw{
			TotalStreams:      c.rng.Float64() * 500000,
			DailyStreams:      c.rng.Float64() * 20000,
			StreamingVelocity: c.rng.Float64() * 2000,
			UniqueListeners:   c.rng.Float64() * 100000,
			PlaylistAdds:      c.rng.Float64() * 100,
			PlaylistReaches:   c.rng.Float64() * 2000000,
		}
	case analytics.KindSocial:
		payload.Social = &analytics.SocialRaw{
			Followers:      c.rng.Float64() * 50000,
			Likes:          c.rng.Float64() * 10000,
			Comments:       c.rng.Float64() * 1500,
			Shares:         c.rng.Float64() * 800,
			Mentions:       c.rng.Float64() * 300,
			Hashtags:       []string{"#newmusic", "#nowplaying"},
			EngagementRate: c.rng.Float64() * 15,
			Reach:          c.rng.Float64() * 200000,
			Impressions:    c.rng.Float64() * 500000,
			SentimentScore: c.rng.Float64()*2 - 1,
		}
	case analytics.KindEmail:
		payload.Email = &analytics.EmailRaw{
			Opens:        c.rng.Float64() * 5000,
			Clicks:       c.rng.Float64() * 1200,
			Conversions:  c.rng.Float64() * 200,
			Revenue:      c.rng.Float64() * 3000,
			Unsubscribes: c.rng.Float64() * 50,
		}
	}

	return payload, nil
}
