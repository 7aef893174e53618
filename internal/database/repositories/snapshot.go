package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
	"github.com/totalaudio/tracker-backend-go/internal/database/models"
)

// SnapshotRepository persists normalized platform snapshots and the
// opportunity journal. It implements monitor.SnapshotStore.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates a snapshot repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveSnapshots inserts one row per normalized record.
func (r *SnapshotRepository) SaveSnapshots(ctx context.Context, records []*analytics.PlatformMetrics) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot insert: %w", err)
	}
	defer tx.Rollback()

	for _, record := range records {
		row, err := snapshotRow(record)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO metric_snapshots
			       (campaign_id, platform, timestamp, metrics_json, hashtags_json,
			        growth_24h, growth_7d, growth_30d, velocity, momentum, viral_score)
			VALUES (:campaign_id, :platform, :timestamp, :metrics_json, :hashtags_json,
			        :growth_24h, :growth_7d, :growth_30d, :velocity, :momentum, :viral_score)`,
			row); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	return tx.Commit()
}

// History returns a campaign's most recent snapshots, oldest first.
func (r *SnapshotRepository) History(ctx context.Context, campaignID string, limit int) ([]*analytics.PlatformMetrics, error) {
	if limit <= 0 {
		limit = 50
	}

	rows := []models.MetricSnapshot{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM (
			SELECT * FROM metric_snapshots
			WHERE campaign_id = ?
			ORDER BY timestamp DESC
			LIMIT ?
		) ORDER BY timestamp ASC`, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("load snapshot history: %w", err)
	}

	records := make([]*analytics.PlatformMetrics, 0, len(rows))
	for i := range rows {
		record, err := snapshotFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// SaveOpportunities journals detected opportunities.
func (r *SnapshotRepository) SaveOpportunities(ctx context.Context, opportunities []analytics.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin opportunity insert: %w", err)
	}
	defer tx.Rollback()

	for _, opportunity := range opportunities {
		recommendations, err := json.Marshal(opportunity.Recommendations)
		if err != nil {
			return fmt.Errorf("encode recommendations: %w", err)
		}

		row := models.OpportunityRecord{
			ID:                  opportunity.ID,
			CampaignID:          opportunity.CampaignID,
			Platform:            string(opportunity.Platform),
			OpportunityType:     opportunity.OpportunityType,
			Confidence:          opportunity.Confidence,
			Urgency:             string(opportunity.Urgency),
			CurrentEngagement:   opportunity.Metrics.CurrentEngagement,
			PredictedPeak:       opportunity.Metrics.PredictedPeak,
			TimeToPeakHours:     opportunity.Metrics.TimeToPeakHours,
			ViralCoefficient:    opportunity.Metrics.ViralCoefficient,
			RecommendationsJSON: string(recommendations),
			TimeWindowHours:     opportunity.TimeWindowHours,
			DiscoveredAt:        opportunity.DiscoveredAt,
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT OR REPLACE INTO opportunities
			       (id, campaign_id, platform, opportunity_type, confidence, urgency,
			        current_engagement, predicted_peak, time_to_peak_hours, viral_coefficient,
			        recommendations_json, time_window_hours, discovered_at)
			VALUES (:id, :campaign_id, :platform, :opportunity_type, :confidence, :urgency,
			        :current_engagement, :predicted_peak, :time_to_peak_hours, :viral_coefficient,
			        :recommendations_json, :time_window_hours, :discovered_at)`,
			row); err != nil {
			return fmt.Errorf("insert opportunity: %w", err)
		}
	}

	return tx.Commit()
}

// RecentOpportunities returns a campaign's latest journaled opportunities.
func (r *SnapshotRepository) RecentOpportunities(ctx context.Context, campaignID string, limit int) ([]analytics.Opportunity, error) {
	if limit <= 0 {
		limit = 20
	}

	rows := []models.OpportunityRecord{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM opportunities
		WHERE campaign_id = ?
		ORDER BY discovered_at DESC
		LIMIT ?`, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("load opportunities: %w", err)
	}

	opportunities := make([]analytics.Opportunity, 0, len(rows))
	for _, row := range rows {
		var recommendations []string
		if err := json.Unmarshal([]byte(row.RecommendationsJSON), &recommendations); err != nil {
			return nil, fmt.Errorf("decode recommendations: %w", err)
		}

		opportunities = append(opportunities, analytics.Opportunity{
			ID:              row.ID,
			CampaignID:      row.CampaignID,
			Platform:        analytics.Platform(row.Platform),
			OpportunityType: row.OpportunityType,
			Confidence:      row.Confidence,
			Urgency:         analytics.Urgency(row.Urgency),
			Metrics: analytics.OpportunityMetrics{
				CurrentEngagement: row.CurrentEngagement,
				PredictedPeak:     row.PredictedPeak,
				TimeToPeakHours:   row.TimeToPeakHours,
				ViralCoefficient:  row.ViralCoefficient,
			},
			Recommendations: recommendations,
			TimeWindowHours: row.TimeWindowHours,
			DiscoveredAt:    row.DiscoveredAt,
		})
	}
	return opportunities, nil
}

func snapshotRow(record *analytics.PlatformMetrics) (*models.MetricSnapshot, error) {
	metricsJSON, err := json.Marshal(record.Metrics)
	if err != nil {
		return nil, fmt.Errorf("encode metrics: %w", err)
	}

	row := &models.MetricSnapshot{
		CampaignID:  record.CampaignID,
		Platform:    string(record.Platform),
		Timestamp:   record.Timestamp,
		MetricsJSON: string(metricsJSON),
		Growth24h:   record.Trends.Growth24h,
		Growth7d:    record.Trends.Growth7d,
		Growth30d:   record.Trends.Growth30d,
		Velocity:    record.Trends.Velocity,
		Momentum:    string(record.Trends.Momentum),
	}
	if record.ViralScore != nil {
		row.ViralScore = sql.NullFloat64{Float64: *record.ViralScore, Valid: true}
	}
	if len(record.Hashtags) > 0 {
		hashtags, err := json.Marshal(record.Hashtags)
		if err != nil {
			return nil, fmt.Errorf("encode hashtags: %w", err)
		}
		row.Hashtags = sql.NullString{String: string(hashtags), Valid: true}
	}
	return row, nil
}

func snapshotFromRow(row *models.MetricSnapshot) (*analytics.PlatformMetrics, error) {
	metrics := map[string]float64{}
	if err := json.Unmarshal([]byte(row.MetricsJSON), &metrics); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}

	record := &analytics.PlatformMetrics{
		Timestamp:  row.Timestamp,
		CampaignID: row.CampaignID,
		Platform:   analytics.Platform(row.Platform),
		Metrics:    metrics,
		Trends: analytics.Trends{
			Growth24h: row.Growth24h,
			Growth7d:  row.Growth7d,
			Growth30d: row.Growth30d,
			Velocity:  row.Velocity,
			Momentum:  analytics.Momentum(row.Momentum),
		},
	}
	if row.ViralScore.Valid {
		score := row.ViralScore.Float64
		record.ViralScore = &score
	}
	if row.Hashtags.Valid {
		if err := json.Unmarshal([]byte(row.Hashtags.String), &record.Hashtags); err != nil {
			return nil, fmt.Errorf("decode hashtags: %w", err)
		}
	}
	return record, nil
}
