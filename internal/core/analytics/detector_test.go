package analytics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(platform Platform, trends Trends, metrics map[string]float64) *PlatformMetrics {
	return &PlatformMetrics{
		Timestamp:  time.Now().UTC(),
		CampaignID: "camp-1",
		Platform:   platform,
		Metrics:    metrics,
		Trends:     trends,
	}
}

func TestDetector_StreamingVelocitySpike(t *testing.T) {
	d := NewDetector(DefaultThresholds(), logrus.New())

	record := snapshot(PlatformSpotify,
		Trends{Growth24h: 12, Growth7d: 30, Velocity: 1.5, Momentum: MomentumIncreasing},
		map[string]float64{MetricStreamingVelocity: 6000},
	)

	opportunities := d.Detect([]*PlatformMetrics{record})
	require.Len(t, opportunities, 1)

	opp := opportunities[0]
	assert.Equal(t, OpportunityStreamingVelocitySpike, opp.OpportunityType)
	assert.Equal(t, UrgencyCritical, opp.Urgency)
	assert.Equal(t, 4, opp.TimeWindowHours)
	assert.Equal(t, 2, opp.Metrics.TimeToPeakHours)
	assert.InDelta(t, 9000, opp.Metrics.PredictedPeak, 0.001)
	assert.InDelta(t, 60, opp.Metrics.ViralCoefficient, 0.001)
	assert.Equal(t, "camp-1", opp.CampaignID)
	assert.NotEmpty(t, opp.ID)
	assert.Contains(t, opp.Recommendations, "Submit the track to editorial and algorithmic playlists immediately")
}

func TestDetector_StreamingSpikeIsSpotifyOnly(t *testing.T) {
	d := NewDetector(DefaultThresholds(), logrus.New())

	record := snapshot(PlatformYouTube,
		Trends{Growth24h: 12, Growth7d: 30, Velocity: 1.5},
		map[string]float64{MetricStreamingVelocity: 6000},
	)

	assert.Empty(t, d.Detect([]*PlatformMetrics{record}))
}

func TestDetector_HighEngagementVelocity(t *testing.T) {
	d := NewDetector(DefaultThresholds(), logrus.New())

	tests := []struct {
		name            string
		growth24h       float64
		engagementRate  float64
		expectTriggered bool
		expectUrgency   Urgency
	}{
		// engagementVelocity = (growth24h/24) * (rate/100)
		{"strong velocity and rate", 600, 10, true, UrgencyMedium},
		{"very strong velocity is high urgency", 1300, 10, true, UrgencyHigh},
		{"rate too low", 600, 7, false, ""},
		{"velocity too low", 40, 12, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := snapshot(PlatformTikTok,
				Trends{Growth24h: tt.growth24h, Growth7d: 5},
				map[string]float64{MetricEngagementRate: tt.engagementRate},
			)

			opportunities := d.Detect([]*PlatformMetrics{record})
			if !tt.expectTriggered {
				assert.Empty(t, opportunities)
				return
			}

			require.Len(t, opportunities, 1)
			assert.Equal(t, OpportunityHighEngagementVelocity, opportunities[0].OpportunityType)
			assert.Equal(t, tt.expectUrgency, opportunities[0].Urgency)
		})
	}
}

func TestDetector_SocialMentionSpike(t *testing.T) {
	d := NewDetector(DefaultThresholds(), logrus.New())

	tests := []struct {
		name          string
		mentions      float64
		expectUrgency Urgency
	}{
		{"moderate spike", 150, UrgencyMedium},
		{"massive spike is critical", 600, UrgencyCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := snapshot(PlatformTwitter,
				Trends{Growth24h: 8, Growth7d: 20},
				map[string]float64{MetricMentions: tt.mentions},
			)

			opportunities := d.Detect([]*PlatformMetrics{record})
			require.Len(t, opportunities, 1)
			assert.Equal(t, OpportunitySocialMentionSpike, opportunities[0].OpportunityType)
			assert.Equal(t, tt.expectUrgency, opportunities[0].Urgency)
		})
	}
}

func TestDetector_OneRecordCanTriggerMultipleRules(t *testing.T) {
	d := NewDetector(DefaultThresholds(), logrus.New())

	record := snapshot(PlatformInstagram,
		Trends{Growth24h: 600, Growth7d: 40},
		map[string]float64{
			MetricEngagementRate: 12,
			MetricMentions:       700,
		},
	)

	opportunities := d.Detect([]*PlatformMetrics{record})
	require.Len(t, opportunities, 2)

	types := []string{opportunities[0].OpportunityType, opportunities[1].OpportunityType}
	assert.Contains(t, types, OpportunityHighEngagementVelocity)
	assert.Contains(t, types, OpportunitySocialMentionSpike)
}

func TestDetector_Ordering(t *testing.T) {
	d := NewDetector(DefaultThresholds(), logrus.New())

	records := []*PlatformMetrics{
		snapshot(PlatformTwitter,
			Trends{Growth24h: 2, Growth7d: 3},
			map[string]float64{MetricMentions: 150},
		),
		snapshot(PlatformSpotify,
			Trends{Growth24h: 50, Growth7d: 80},
			map[string]float64{MetricStreamingVelocity: 7000},
		),
		snapshot(PlatformInstagram,
			Trends{Growth24h: 90, Growth7d: 95},
			map[string]float64{MetricMentions: 400},
		),
	}

	opportunities := d.Detect(records)
	require.Len(t, opportunities, 3)

	for i := 1; i < len(opportunities); i++ {
		previous, current := opportunities[i-1], opportunities[i]
		assert.GreaterOrEqual(t, previous.Urgency.Rank(), current.Urgency.Rank())
		if previous.Urgency.Rank() == current.Urgency.Rank() {
			assert.GreaterOrEqual(t, previous.Confidence, current.Confidence)
		}
	}
}

func TestDetector_ConfidenceFormula(t *testing.T) {
	d := NewDetector(DefaultThresholds(), logrus.New())

	record := snapshot(PlatformTwitter,
		Trends{Growth24h: 10, Growth7d: 20},
		map[string]float64{MetricMentions: 200},
	)

	opportunities := d.Detect([]*PlatformMetrics{record})
	require.Len(t, opportunities, 1)

	// (|10| + |20| + min(200/1000*100, 100)) / 2 = (10+20+20)/2 = 25
	assert.InDelta(t, 25, opportunities[0].Confidence, 0.001)
	assert.LessOrEqual(t, opportunities[0].Confidence, 100.0)
}

func TestLoadThresholds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mentions_min: 250\nstreaming_velocity_min: 2000\n"), 0o644))

	thresholds, err := LoadThresholds(path)
	require.NoError(t, err)

	assert.Equal(t, 250.0, thresholds.MentionsMin)
	assert.Equal(t, 2000.0, thresholds.StreamingVelocityMin)
	// Untouched fields keep defaults.
	assert.Equal(t, DefaultThresholds().EngagementRateMin, thresholds.EngagementRateMin)
}

func TestLoadThresholds_MissingFileKeepsDefaults(t *testing.T) {
	thresholds, err := LoadThresholds("/nonexistent/thresholds.yaml")
	assert.Error(t, err)
	assert.Equal(t, DefaultThresholds(), thresholds)
}
