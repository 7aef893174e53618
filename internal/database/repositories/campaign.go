package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/totalaudio/tracker-backend-go/internal/database/models"
)

// Sortable campaign columns the dashboard table exposes.
var campaignSortColumns = map[string]string{
	"name":       "name",
	"artist":     "artist",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// CampaignRepository provides campaign CRUD for the dashboard.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository creates a campaign repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// CampaignFilter controls List.
type CampaignFilter struct {
	Status  string
	SortBy  string
	SortDir string
	Limit   int
	Offset  int
}

// Create inserts a campaign, assigning an id when none is given.
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.New().String()
	}
	if campaign.Status == "" {
		campaign.Status = models.CampaignStatusDraft
	}
	now := time.Now().UTC()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO campaigns (id, name, artist, track_title, status, start_date, end_date, created_at, updated_at)
		VALUES (:id, :name, :artist, :track_title, :status, :start_date, :end_date, :created_at, :updated_at)`,
		campaign)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// Get fetches one campaign by id.
func (r *CampaignRepository) Get(ctx context.Context, id string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.GetContext(ctx, &campaign, `SELECT * FROM campaigns WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("campaign %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return &campaign, nil
}

// List returns campaigns matching the filter, sorted for the dashboard
// table. Unknown sort columns fall back to created_at to keep the query
// injection-safe.
func (r *CampaignRepository) List(ctx context.Context, filter CampaignFilter) ([]models.Campaign, error) {
	column, ok := campaignSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortDir == "asc" {
		direction = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT * FROM campaigns`
	args := []interface{}{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += fmt.Sprintf(` ORDER BY %s %s LIMIT ? OFFSET ?`, column, direction)
	args = append(args, limit, filter.Offset)

	campaigns := []models.Campaign{}
	if err := r.db.SelectContext(ctx, &campaigns, query, args...); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}

// Update rewrites a campaign's mutable fields.
func (r *CampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	campaign.UpdatedAt = time.Now().UTC()

	result, err := r.db.NamedExecContext(ctx, `
		UPDATE campaigns
		SET name = :name, artist = :artist, track_title = :track_title,
		    status = :status, start_date = :start_date, end_date = :end_date,
		    updated_at = :updated_at
		WHERE id = :id`, campaign)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %s not found", campaign.ID)
	}
	return nil
}

// Delete removes a campaign and its snapshot and opportunity history.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM metric_snapshots WHERE campaign_id = ?`, id); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM opportunities WHERE campaign_id = ?`, id); err != nil {
		return fmt.Errorf("delete opportunities: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %s not found", id)
	}

	return tx.Commit()
}
