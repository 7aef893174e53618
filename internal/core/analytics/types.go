package analytics

import (
	"fmt"
	"time"
)

// Platform identifies a promotion channel a campaign can be tracked on.
type Platform string

const (
	PlatformSpotify   Platform = "spotify"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformYouTube   Platform = "youtube"
	PlatformEmail     Platform = "email"
)

// AllPlatforms lists every supported platform in a stable order.
var AllPlatforms = []Platform{
	PlatformSpotify,
	PlatformInstagram,
	PlatformTikTok,
	PlatformTwitter,
	PlatformFacebook,
	PlatformYouTube,
	PlatformEmail,
}

// ParsePlatform converts a string into a Platform, rejecting unknown values.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	for _, known := range AllPlatforms {
		if p == known {
			return p, nil
		}
	}
	return "", &UnsupportedPlatformError{Platform: s}
}

// Kind buckets platforms by the metric families their collectors report.
type PlatformKind string

const (
	KindStreaming PlatformKind = "streaming"
	KindSocial    PlatformKind = "social"
	KindEmail     PlatformKind = "email"
)

// Kind returns the metric family a platform reports.
func (p Platform) Kind() PlatformKind {
	switch p {
	case PlatformSpotify, PlatformYouTube:
		return KindStreaming
	case PlatformInstagram, PlatformTikTok, PlatformTwitter, PlatformFacebook:
		return KindSocial
	case PlatformEmail:
		return KindEmail
	}
	return ""
}

// Momentum is the categorical trend direction derived purely from velocity.
type Momentum string

const (
	MomentumIncreasing Momentum = "increasing"
	MomentumStable     Momentum = "stable"
	MomentumDecreasing Momentum = "decreasing"
)

// Urgency classifies how quickly a detected opportunity must be acted on.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Rank returns the total order over urgencies (critical > high > medium > low).
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	}
	return 0
}

// Opportunity types emitted by the detector. The set is open-ended; these are
// the rules shipped today.
const (
	OpportunityHighEngagementVelocity = "high-engagement-velocity"
	OpportunityStreamingVelocitySpike = "streaming-velocity-spike"
	OpportunitySocialMentionSpike     = "social-mention-spike"
)

// Metric keys used in the sparse PlatformMetrics.Metrics map. Which keys a
// record carries depends on the platform kind; no record carries all of them.
const (
	MetricTotalStreams      = "total_streams"
	MetricDailyStreams      = "daily_streams"
	MetricStreamingVelocity = "streaming_velocity"
	MetricUniqueListeners   = "unique_listeners"
	MetricPlaylistAdds      = "playlist_adds"
	MetricPlaylistReaches   = "playlist_reaches"

	MetricFollowers      = "followers"
	MetricLikes          = "likes"
	MetricComments       = "comments"
	MetricShares         = "shares"
	MetricMentions       = "mentions"
	MetricEngagementRate = "engagement_rate"
	MetricReach          = "reach"
	MetricImpressions    = "impressions"
	MetricSentimentScore = "sentiment_score"

	MetricOpens        = "opens"
	MetricClicks       = "clicks"
	MetricConversions  = "conversions"
	MetricRevenue      = "revenue"
	MetricUnsubscribes = "unsubscribes"
)

// Trends holds the growth series and derived momentum for one snapshot.
type Trends struct {
	Growth24h float64  `json:"growth_24h"`
	Growth7d  float64  `json:"growth_7d"`
	Growth30d float64  `json:"growth_30d"`
	Velocity  float64  `json:"velocity"`
	Momentum  Momentum `json:"momentum"`
}

// PlatformMetrics is one snapshot of a single platform's performance for a
// campaign. Metrics is sparse: only the keys the platform kind reports are
// populated. ViralScore is nil until the normalizer (social platforms) or the
// cross-platform scorer (everything else) fills it in.
type PlatformMetrics struct {
	Timestamp  time.Time          `json:"timestamp"`
	CampaignID string             `json:"campaign_id"`
	Platform   Platform           `json:"platform"`
	Metrics    map[string]float64 `json:"metrics"`
	Hashtags   []string           `json:"hashtags,omitempty"`
	Trends     Trends             `json:"trends"`
	ViralScore *float64           `json:"viral_score,omitempty"`
}

// Metric returns a metric value and whether the snapshot carries it.
func (m *PlatformMetrics) Metric(key string) (float64, bool) {
	v, ok := m.Metrics[key]
	return v, ok
}

// OpportunityMetrics quantifies a detected opportunity.
type OpportunityMetrics struct {
	CurrentEngagement float64 `json:"current_engagement"`
	PredictedPeak     float64 `json:"predicted_peak"`
	TimeToPeakHours   int     `json:"time_to_peak_hours"`
	ViralCoefficient  float64 `json:"viral_coefficient"`
}

// Opportunity is a detected, time-bounded signal that a campaign is trending
// toward a viral event on one platform. Opportunities are created fresh on
// every detection pass and never mutated afterwards; deduplication across
// passes is the caller's concern.
type Opportunity struct {
	ID              string             `json:"id"`
	CampaignID      string             `json:"campaign_id"`
	Platform        Platform           `json:"platform"`
	OpportunityType string             `json:"opportunity_type"`
	Confidence      float64            `json:"confidence"`
	Urgency         Urgency            `json:"urgency"`
	Metrics         OpportunityMetrics `json:"metrics"`
	Recommendations []string           `json:"recommendations"`
	TimeWindowHours int                `json:"time_window_hours"`
	DiscoveredAt    time.Time          `json:"discovered_at"`
}

// ProjectedMetrics is the 30-day forecast block of a PredictiveScore.
type ProjectedMetrics struct {
	Streams30d      float64 `json:"streams_30d"`
	Engagement30d   float64 `json:"engagement_30d"`
	Revenue30d      float64 `json:"revenue_30d"`
	PlaylistAdds30d float64 `json:"playlist_adds_30d"`
}

// PredictiveScore is a 30-day success forecast for a campaign. Platform is
// always "cross-platform": prediction aggregates every monitored platform.
type PredictiveScore struct {
	CampaignID         string           `json:"campaign_id"`
	Platform           string           `json:"platform"`
	SuccessProbability float64          `json:"success_probability"`
	ProjectedMetrics   ProjectedMetrics `json:"projected_metrics"`
	RiskFactors        []string         `json:"risk_factors"`
	Opportunities      []string         `json:"opportunities"`
	Confidence         float64          `json:"confidence"`
	LastUpdated        time.Time        `json:"last_updated"`
}

// UnsupportedPlatformError reports a platform identifier outside the closed
// enumeration.
type UnsupportedPlatformError struct {
	Platform string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: %q", e.Platform)
}

// InvalidPayloadError reports a collector payload missing required fields.
// Missing fields fail fast instead of defaulting to zero, since zero is a
// valid metric value and silent defaulting would corrupt trend math and
// detection thresholds downstream.
type InvalidPayloadError struct {
	Platform Platform
	Missing  []string
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("invalid %s payload: missing fields %v", e.Platform, e.Missing)
}

// InsufficientDataError reports a prediction request with no history to
// average over.
type InsufficientDataError struct {
	CampaignID string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for campaign %s: no metric snapshots", e.CampaignID)
}

// RemoteServiceError wraps any failure from the remote prediction
// collaborator. It never escapes GeneratePredictiveScore; the predictor
// always recovers with the local fallback.
type RemoteServiceError struct {
	Err error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("prediction service: %v", e.Err)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}
