package analytics

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Thresholds are the detector trigger and urgency levels. The defaults are
// the product's tuned values; operators can override them with a YAML file.
type Thresholds struct {
	EngagementVelocityMin     float64 `yaml:"engagement_velocity_min"`
	EngagementRateMin         float64 `yaml:"engagement_rate_min"`
	EngagementVelocityHigh    float64 `yaml:"engagement_velocity_high"`
	StreamingVelocityMin      float64 `yaml:"streaming_velocity_min"`
	StreamingVelocityCritical float64 `yaml:"streaming_velocity_critical"`
	MentionsMin               float64 `yaml:"mentions_min"`
	MentionsCritical          float64 `yaml:"mentions_critical"`
}

// DefaultThresholds returns the shipped trigger levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EngagementVelocityMin:     2.0,
		EngagementRateMin:         8.0,
		EngagementVelocityHigh:    5.0,
		StreamingVelocityMin:      1000,
		StreamingVelocityCritical: 5000,
		MentionsMin:               100,
		MentionsCritical:          500,
	}
}

// LoadThresholds reads threshold overrides from a YAML file. Fields left
// zero in the file keep their defaults.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read thresholds: %w", err)
	}

	var overrides Thresholds
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return t, fmt.Errorf("parse thresholds: %w", err)
	}

	if overrides.EngagementVelocityMin > 0 {
		t.EngagementVelocityMin = overrides.EngagementVelocityMin
	}
	if overrides.EngagementRateMin > 0 {
		t.EngagementRateMin = overrides.EngagementRateMin
	}
	if overrides.EngagementVelocityHigh > 0 {
		t.EngagementVelocityHigh = overrides.EngagementVelocityHigh
	}
	if overrides.StreamingVelocityMin > 0 {
		t.StreamingVelocityMin = overrides.StreamingVelocityMin
	}
	if overrides.StreamingVelocityCritical > 0 {
		t.StreamingVelocityCritical = overrides.StreamingVelocityCritical
	}
	if overrides.MentionsMin > 0 {
		t.MentionsMin = overrides.MentionsMin
	}
	if overrides.MentionsCritical > 0 {
		t.MentionsCritical = overrides.MentionsCritical
	}

	return t, nil
}

// Detector scans normalized snapshots for viral opportunities.
type Detector struct {
	thresholds Thresholds
	logger     *logrus.Logger
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(thresholds Thresholds, logger *logrus.Logger) *Detector {
	return &Detector{thresholds: thresholds, logger: logger}
}

// Detect evaluates every trigger rule against every snapshot independently;
// one snapshot may produce zero, one, or several opportunities. The result
// is ordered by urgency descending, then confidence descending; ties beyond
// that keep detection order.
func (d *Detector) Detect(records []*PlatformMetrics) []Opportunity {
	var opportunities []Opportunity

	for _, record := range records {
		opportunities = append(opportunities, d.detectOne(record)...)
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		if opportunities[i].Urgency.Rank() != opportunities[j].Urgency.Rank() {
			return opportunities[i].Urgency.Rank() > opportunities[j].Urgency.Rank()
		}
		return opportunities[i].Confidence > opportunities[j].Confidence
	})

	if d.logger != nil && len(opportunities) > 0 {
		d.logger.WithFields(logrus.Fields{
			"campaign_id":   opportunities[0].CampaignID,
			"opportunities": len(opportunities),
			"top_urgency":   opportunities[0].Urgency,
		}).Info("Viral opportunities detected")
	}

	return opportunities
}

func (d *Detector) detectOne(record *PlatformMetrics) []Opportunity {
	var found []Opportunity

	engagementRate, hasEngagement := record.Metric(MetricEngagementRate)
	if hasEngagement {
		engagementVelocity := (record.Trends.Growth24h / 24) * (engagementRate / 100)
		if engagementVelocity > d.thresholds.EngagementVelocityMin && engagementRate > d.thresholds.EngagementRateMin {
			urgency := UrgencyMedium
			if engagementVelocity > d.thresholds.EngagementVelocityHigh {
				urgency = UrgencyHigh
			}
			found = append(found, d.build(record, OpportunityHighEngagementVelocity, engagementVelocity, urgency))
		}
	}

	if record.Platform == PlatformSpotify {
		if streamingVelocity, ok := record.Metric(MetricStreamingVelocity); ok && streamingVelocity > d.thresholds.StreamingVelocityMin {
			urgency := UrgencyMedium
			if streamingVelocity > d.thresholds.StreamingVelocityCritical {
				urgency = UrgencyCritical
			}
			found = append(found, d.build(record, OpportunityStreamingVelocitySpike, streamingVelocity, urgency))
		}
	}

	if mentions, ok := record.Metric(MetricMentions); ok && mentions > d.thresholds.MentionsMin {
		urgency := UrgencyMedium
		if mentions > d.thresholds.MentionsCritical {
			urgency = UrgencyCritical
		}
		found = append(found, d.build(record, OpportunitySocialMentionSpike, mentions, urgency))
	}

	return found
}

func (d *Detector) build(record *PlatformMetrics, opportunityType string, metric float64, urgency Urgency) Opportunity {
	confidence := math.Min(
		(math.Abs(record.Trends.Growth24h)+math.Abs(record.Trends.Growth7d)+math.Min(metric/1000*100, 100))/2,
		100,
	)

	return Opportunity{
		ID:              uuid.New().String(),
		CampaignID:      record.CampaignID,
		Platform:        record.Platform,
		OpportunityType: opportunityType,
		Confidence:      confidence,
		Urgency:         urgency,
		Metrics: OpportunityMetrics{
			CurrentEngagement: metric,
			PredictedPeak:     metric * 1.5,
			TimeToPeakHours:   timeToPeakHours(urgency),
			ViralCoefficient:  metric / 100,
		},
		Recommendations: recommendationsFor(record.Platform, opportunityType),
		TimeWindowHours: timeWindowHours(urgency),
		DiscoveredAt:    time.Now().UTC(),
	}
}

func timeToPeakHours(urgency Urgency) int {
	switch urgency {
	case UrgencyCritical:
		return 2
	case UrgencyHigh:
		return 6
	case UrgencyMedium:
		return 12
	}
	return 24
}

func timeWindowHours(urgency Urgency) int {
	switch urgency {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 8
	case UrgencyMedium:
		return 24
	}
	return 48
}

func recommendationsFor(platform Platform, opportunityType string) []string {
	recommendations := []string{
		"Boost promotion spend while engagement is peaking",
		"Schedule artist content to ride the current momentum",
		"Notify the campaign owner to review performance now",
	}

	if opportunityType == OpportunityStreamingVelocitySpike {
		recommendations = append(recommendations,
			"Submit the track to editorial and algorithmic playlists immediately",
			"Share the streaming milestone across the campaign's social channels",
		)
	}

	if platform == PlatformTikTok || platform == PlatformInstagram {
		recommendations = append(recommendations,
			"Publish response content while the format is trending",
			"Engage top commenters to extend the conversation",
		)
	}

	return recommendations
}
