package models

import (
	"database/sql"
	"time"
)

// Campaign is a promotion campaign row.
type Campaign struct {
	ID         string       `db:"id" json:"id"`
	Name       string       `db:"name" json:"name"`
	Artist     string       `db:"artist" json:"artist"`
	TrackTitle string       `db:"track_title" json:"track_title"`
	Status     string       `db:"status" json:"status"` // draft, active, completed, archived
	StartDate  sql.NullTime `db:"start_date" json:"start_date,omitempty"`
	EndDate    sql.NullTime `db:"end_date" json:"end_date,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// Campaign statuses.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusArchived  = "archived"
)

// MetricSnapshot is one persisted platform snapshot. The sparse metric map
// and hashtags are stored as JSON; the trend fields get their own columns so
// history queries can filter and aggregate on them.
type MetricSnapshot struct {
	ID          int64           `db:"id" json:"id"`
	CampaignID  string          `db:"campaign_id" json:"campaign_id"`
	Platform    string          `db:"platform" json:"platform"`
	Timestamp   time.Time       `db:"timestamp" json:"timestamp"`
	MetricsJSON string          `db:"metrics_json" json:"-"`
	Hashtags    sql.NullString  `db:"hashtags_json" json:"-"`
	Growth24h   float64         `db:"growth_24h" json:"growth_24h"`
	Growth7d    float64         `db:"growth_7d" json:"growth_7d"`
	Growth30d   float64         `db:"growth_30d" json:"growth_30d"`
	Velocity    float64         `db:"velocity" json:"velocity"`
	Momentum    string          `db:"momentum" json:"momentum"`
	ViralScore  sql.NullFloat64 `db:"viral_score" json:"viral_score,omitempty"`
}

// OpportunityRecord is one journaled opportunity detection.
type OpportunityRecord struct {
	ID                  string    `db:"id" json:"id"`
	CampaignID          string    `db:"campaign_id" json:"campaign_id"`
	Platform            string    `db:"platform" json:"platform"`
	OpportunityType     string    `db:"opportunity_type" json:"opportunity_type"`
	Confidence          float64   `db:"confidence" json:"confidence"`
	Urgency             string    `db:"urgency" json:"urgency"`
	CurrentEngagement   float64   `db:"current_engagement" json:"current_engagement"`
	PredictedPeak       float64   `db:"predicted_peak" json:"predicted_peak"`
	TimeToPeakHours     int       `db:"time_to_peak_hours" json:"time_to_peak_hours"`
	ViralCoefficient    float64   `db:"viral_coefficient" json:"viral_coefficient"`
	RecommendationsJSON string    `db:"recommendations_json" json:"-"`
	TimeWindowHours     int       `db:"time_window_hours" json:"time_window_hours"`
	DiscoveredAt        time.Time `db:"discovered_at" json:"discovered_at"`
}
