package repositories

import (
	"github.com/jmoiron/sqlx"
)

// Repositories bundles all repositories for dependency injection.
type Repositories struct {
	Campaign *CampaignRepository
	Snapshot *SnapshotRepository
}

// NewRepositories creates all repositories.
func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Campaign: NewCampaignRepository(db),
		Snapshot: NewSnapshotRepository(db),
	}
}
