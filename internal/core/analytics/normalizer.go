package analytics

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Momentum classification thresholds. Velocity above the upper bound reads
// as accelerating growth, below the lower bound as decay.
const (
	momentumIncreasingAbove = 1.2
	momentumDecreasingBelow = 0.8
)

// RawPayload is the shape every platform collector must produce. The growth
// and velocity fields are required for all platforms; exactly one of the
// kind-specific blocks must be set, matching the platform's kind. Pointer
// fields distinguish "absent" from a legitimate zero.
type RawPayload struct {
	Growth24h *float64 `json:"growth_24h"`
	Growth7d  *float64 `json:"growth_7d"`
	Growth30d *float64 `json:"growth_30d"`
	Velocity  *float64 `json:"velocity"`

	Streaming *StreamingRaw `json:"streaming,omitempty"`
	Social    *SocialRaw    `json:"social,omitempty"`
	Email     *EmailRaw     `json:"email,omitempty"`
}

// StreamingRaw carries the metrics streaming collectors (Spotify, YouTube)
// report.
type StreamingRaw struct {
	TotalStreams      float64 `json:"total_streams"`
	DailyStreams      float64 `json:"daily_streams"`
	StreamingVelocity float64 `json:"streaming_velocity"`
	UniqueListeners   float64 `json:"unique_listeners"`
	PlaylistAdds      float64 `json:"playlist_adds"`
	PlaylistReaches   float64 `json:"playlist_reaches"`
}

// SocialRaw carries the metrics social collectors report.
type SocialRaw struct {
	Followers      float64  `json:"followers"`
	Likes          float64  `json:"likes"`
	Comments       float64  `json:"comments"`
	Shares         float64  `json:"shares"`
	Mentions       float64  `json:"mentions"`
	Hashtags       []string `json:"hashtags"`
	EngagementRate float64  `json:"engagement_rate"`
	Reach          float64  `json:"reach"`
	Impressions    float64  `json:"impressions"`
	SentimentScore float64  `json:"sentiment_score"`
}

// EmailRaw carries the metrics the email collector reports.
type EmailRaw struct {
	Opens        float64 `json:"opens"`
	Clicks       float64 `json:"clicks"`
	Conversions  float64 `json:"conversions"`
	Revenue      float64 `json:"revenue"`
	Unsubscribes float64 `json:"unsubscribes"`
}

// MomentumFor classifies a velocity. It is a pure, total function: no other
// input affects momentum.
func MomentumFor(velocity float64) Momentum {
	switch {
	case velocity > momentumIncreasingAbove:
		return MomentumIncreasing
	case velocity < momentumDecreasingBelow:
		return MomentumDecreasing
	default:
		return MomentumStable
	}
}

// SocialViralScore computes the 0-100 per-platform viral score for social
// platforms. Share rate carries the heaviest weight; raw velocity is capped
// at 5 so an outlier burst cannot run the score away.
func SocialViralScore(engagementRate, shares, reach, velocity float64) float64 {
	shareRate := shares / math.Max(reach, 1) * 100
	velocityScore := math.Min(velocity, 5) * 20
	return math.Min((engagementRate*2+shareRate*3+velocityScore)/6, 100)
}

// Normalizer converts raw per-platform collector payloads into the common
// PlatformMetrics shape.
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize validates a raw payload and produces one PlatformMetrics
// snapshot. Social platforms additionally get their intrinsic viral score;
// other kinds leave ViralScore nil for the cross-platform scorer to fill.
func (n *Normalizer) Normalize(campaignID string, platform Platform, raw RawPayload) (*PlatformMetrics, error) {
	kind := platform.Kind()
	if kind == "" {
		return nil, &UnsupportedPlatformError{Platform: string(platform)}
	}

	var missing []string
	if raw.Growth24h == nil {
		missing = append(missing, "growth_24h")
	}
	if raw.Growth7d == nil {
		missing = append(missing, "growth_7d")
	}
	if raw.Growth30d == nil {
		missing = append(missing, "growth_30d")
	}
	if raw.Velocity == nil {
		missing = append(missing, "velocity")
	}

	switch kind {
	case KindStreaming:
		if raw.Streaming == nil {
			missing = append(missing, "streaming")
		}
	case KindSocial:
		if raw.Social == nil {
			missing = append(missing, "social")
		}
	case KindEmail:
		if raw.Email == nil {
			missing = append(missing, "email")
		}
	}

	if len(missing) > 0 {
		return nil, &InvalidPayloadError{Platform: platform, Missing: missing}
	}

	velocity := *raw.Velocity
	record := &PlatformMetrics{
		Timestamp:  time.Now().UTC(),
		CampaignID: campaignID,
		Platform:   platform,
		Metrics:    make(map[string]float64),
		Trends: Trends{
			Growth24h: *raw.Growth24h,
			Growth7d:  *raw.Growth7d,
			Growth30d: *raw.Growth30d,
			Velocity:  velocity,
			Momentum:  MomentumFor(velocity),
		},
	}

	switch kind {
	case KindStreaming:
		s := raw.Streaming
		record.Metrics[MetricTotalStreams] = s.TotalStreams
		record.Metrics[MetricDailyStreams] = s.DailyStreams
		record.Metrics[MetricStreamingVelocity] = s.StreamingVelocity
		record.Metrics[MetricUniqueListeners] = s.UniqueListeners
		record.Metrics[MetricPlaylistAdds] = s.PlaylistAdds
		record.Metrics[MetricPlaylistReaches] = s.PlaylistReaches

	case KindSocial:
		s := raw.Social
		record.Metrics[MetricFollowers] = s.Followers
		record.Metrics[MetricLikes] = s.Likes
		record.Metrics[MetricComments] = s.Comments
		record.Metrics[MetricShares] = s.Shares
		record.Metrics[MetricMentions] = s.Mentions
		record.Metrics[MetricEngagementRate] = s.EngagementRate
		record.Metrics[MetricReach] = s.Reach
		record.Metrics[MetricImpressions] = s.Impressions
		record.Metrics[MetricSentimentScore] = s.SentimentScore
		record.Hashtags = append([]string(nil), s.Hashtags...)

		score := SocialViralScore(s.EngagementRate, s.Shares, s.Reach, velocity)
		record.ViralScore = &score

	case KindEmail:
		e := raw.Email
		record.Metrics[MetricOpens] = e.Opens
		record.Metrics[MetricClicks] = e.Clicks
		record.Metrics[MetricConversions] = e.Conversions
		record.Metrics[MetricRevenue] = e.Revenue
		record.Metrics[MetricUnsubscribes] = e.Unsubscribes
	}

	if n.logger != nil {
		n.logger.WithFields(logrus.Fields{
			"campaign_id": campaignID,
			"platform":    platform,
			"momentum":    record.Trends.Momentum,
		}).Debug("Normalized platform metrics")
	}

	return record, nil
}
