package analytics

import "math"

// Viral-platform threshold and the bonus applied when a campaign is viral on
// more than one platform at once.
const (
	viralPlatformThreshold = 70.0
	multiPlatformBonus     = 1.2
)

// CrossPlatformScore aggregates per-platform viral scores into the
// campaign's overall score and writes the aggregate back onto every record
// that has no intrinsic score of its own (streaming, email). Records already
// scored by the normalizer are left untouched, so all un-scored platforms in
// a snapshot share the same inherited figure.
func CrossPlatformScore(records []*PlatformMetrics) float64 {
	if len(records) == 0 {
		return 0
	}

	var sum float64
	viralPlatforms := 0
	for _, record := range records {
		if record.ViralScore == nil {
			continue
		}
		sum += *record.ViralScore
		if *record.ViralScore > viralPlatformThreshold {
			viralPlatforms++
		}
	}

	avgScore := sum / float64(len(records))
	multiplier := 1.0
	if viralPlatforms > 1 {
		multiplier = multiPlatformBonus
	}
	aggregate := math.Min(avgScore*multiplier, 100)

	for _, record := range records {
		if record.ViralScore == nil {
			score := aggregate
			record.ViralScore = &score
		}
	}

	return aggregate
}
