package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(platform Platform, score float64) *PlatformMetrics {
	return &PlatformMetrics{
		CampaignID: "camp-1",
		Platform:   platform,
		Metrics:    map[string]float64{},
		ViralScore: &score,
	}
}

func unscored(platform Platform) *PlatformMetrics {
	return &PlatformMetrics{
		CampaignID: "camp-1",
		Platform:   platform,
		Metrics:    map[string]float64{},
	}
}

func TestCrossPlatformScore_MultiPlatformBonus(t *testing.T) {
	// avg(80, 90) = 85, two viral platforms (>70) so ×1.2 = 102, capped at 100.
	records := []*PlatformMetrics{
		scored(PlatformInstagram, 80),
		scored(PlatformTikTok, 90),
	}

	assert.InDelta(t, 100, CrossPlatformScore(records), 0.001)
}

func TestCrossPlatformScore_SingleViralPlatformNoBonus(t *testing.T) {
	records := []*PlatformMetrics{
		scored(PlatformInstagram, 80),
		scored(PlatformTikTok, 40),
	}

	assert.InDelta(t, 60, CrossPlatformScore(records), 0.001)
}

func TestCrossPlatformScore_SecondViralPlatformNeverLowersScore(t *testing.T) {
	single := CrossPlatformScore([]*PlatformMetrics{
		scored(PlatformInstagram, 75),
		scored(PlatformTikTok, 75),
	})
	// Same scores but only one platform above the viral threshold.
	base := CrossPlatformScore([]*PlatformMetrics{
		scored(PlatformInstagram, 75),
		scored(PlatformTikTok, 69),
	})

	assert.Greater(t, single, base)
}

func TestCrossPlatformScore_MissingScoresCountAsZero(t *testing.T) {
	records := []*PlatformMetrics{
		scored(PlatformInstagram, 90),
		unscored(PlatformSpotify),
		unscored(PlatformEmail),
	}

	// mean(90, 0, 0) = 30, one viral platform so no bonus.
	assert.InDelta(t, 30, CrossPlatformScore(records), 0.001)
}

func TestCrossPlatformScore_WritesBackOnlyMissing(t *testing.T) {
	social := scored(PlatformInstagram, 90)
	spotify := unscored(PlatformSpotify)
	email := unscored(PlatformEmail)

	aggregate := CrossPlatformScore([]*PlatformMetrics{social, spotify, email})

	// The intrinsic social score is untouched; every un-scored platform
	// inherits the same shared aggregate.
	assert.Equal(t, 90.0, *social.ViralScore)
	require.NotNil(t, spotify.ViralScore)
	require.NotNil(t, email.ViralScore)
	assert.Equal(t, aggregate, *spotify.ViralScore)
	assert.Equal(t, aggregate, *email.ViralScore)
}

func TestCrossPlatformScore_Empty(t *testing.T) {
	assert.Equal(t, 0.0, CrossPlatformScore(nil))
}
