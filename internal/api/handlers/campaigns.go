package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/totalaudio/tracker-backend-go/internal/database/models"
	"github.com/totalaudio/tracker-backend-go/internal/database/repositories"
	apperrors "github.com/totalaudio/tracker-backend-go/pkg/errors"
	"github.com/totalaudio/tracker-backend-go/pkg/utils"
)

type campaignRequest struct {
	Name       string     `json:"name" binding:"required"`
	Artist     string     `json:"artist"`
	TrackTitle string     `json:"track_title"`
	Status     string     `json:"status"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
}

func (r campaignRequest) apply(campaign *models.Campaign) {
	campaign.Name = r.Name
	campaign.Artist = r.Artist
	campaign.TrackTitle = r.TrackTitle
	if r.Status != "" {
		campaign.Status = r.Status
	}
	if r.StartDate != nil {
		campaign.StartDate = sql.NullTime{Time: *r.StartDate, Valid: true}
	}
	if r.EndDate != nil {
		campaign.EndDate = sql.NullTime{Time: *r.EndDate, Valid: true}
	}
}

// GetCampaigns lists campaigns with optional status filter and sorting.
func (h *Handlers) GetCampaigns(c *gin.Context) {
	filter := repositories.CampaignFilter{
		Status:  c.Query("status"),
		SortBy:  c.DefaultQuery("sort_by", "created_at"),
		SortDir: c.DefaultQuery("sort_dir", "desc"),
	}

	campaigns, err := h.repos.Campaign.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(apperrors.Wrap(err, http.StatusInternalServerError, "Failed to list campaigns"))
		return
	}

	utils.SendSuccessWithMeta(c, campaigns, gin.H{"count": len(campaigns)})
}

// GetCampaign returns one campaign by id.
func (h *Handlers) GetCampaign(c *gin.Context) {
	campaign, err := h.repos.Campaign.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(apperrors.ErrCampaignNotFound)
		return
	}

	utils.SendSuccess(c, campaign)
}

// CreateCampaign creates a campaign.
func (h *Handlers) CreateCampaign(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.New(http.StatusBadRequest, "Invalid campaign payload").WithDetails(err.Error()))
		return
	}

	campaign := &models.Campaign{Status: models.CampaignStatusDraft}
	req.apply(campaign)

	if err := h.repos.Campaign.Create(c.Request.Context(), campaign); err != nil {
		c.Error(apperrors.Wrap(err, http.StatusInternalServerError, "Failed to create campaign"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": campaign})
}

// UpdateCampaign updates an existing campaign.
func (h *Handlers) UpdateCampaign(c *gin.Context) {
	campaign, err := h.repos.Campaign.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(apperrors.ErrCampaignNotFound)
		return
	}

	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.New(http.StatusBadRequest, "Invalid campaign payload").WithDetails(err.Error()))
		return
	}
	req.apply(campaign)

	if err := h.repos.Campaign.Update(c.Request.Context(), campaign); err != nil {
		c.Error(apperrors.Wrap(err, http.StatusInternalServerError, "Failed to update campaign"))
		return
	}

	utils.SendSuccess(c, campaign)
}

// DeleteCampaign removes a campaign along with its snapshots and
// opportunity journal. An active monitor is stopped first.
func (h *Handlers) DeleteCampaign(c *gin.Context) {
	id := c.Param("id")

	if h.monitor.IsMonitoring(id) {
		if err := h.monitor.StopMonitoring(id); err != nil {
			h.log.WithError(err).WithField("campaign_id", id).Warn("Failed to stop monitor during campaign delete")
		}
	}

	if err := h.repos.Campaign.Delete(c.Request.Context(), id); err != nil {
		c.Error(apperrors.Wrap(err, http.StatusInternalServerError, "Failed to delete campaign"))
		return
	}

	utils.SendSuccess(c, gin.H{"deleted": id})
}
