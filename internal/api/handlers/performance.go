package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
	apperrors "github.com/totalaudio/tracker-backend-go/pkg/errors"
	"github.com/totalaudio/tracker-backend-go/pkg/utils"
)

// GetCampaignPerformance collects and normalizes a fresh cross-platform
// snapshot for a campaign. Platforms default to everything registered.
func (h *Handlers) GetCampaignPerformance(c *gin.Context) {
	campaignID := c.Param("id")

	platforms, err := parsePlatformsQuery(c.QueryArray("platform"))
	if err != nil {
		c.Error(err)
		return
	}

	snapshot, err := h.monitor.GetCampaignPerformance(c.Request.Context(), campaignID, platforms)
	if err != nil {
		c.Error(err)
		return
	}

	utils.SendSuccess(c, snapshot)
}

// GetPerformanceHistory returns persisted snapshots, oldest first.
func (h *Handlers) GetPerformanceHistory(c *gin.Context) {
	campaignID := c.Param("id")
	limit := intQuery(c, "limit", 50)

	history, err := h.repos.Snapshot.History(c.Request.Context(), campaignID, limit)
	if err != nil {
		c.Error(apperrors.Wrap(err, http.StatusInternalServerError, "Failed to read snapshot history"))
		return
	}

	utils.SendSuccess(c, history)
}

// DetectOpportunities runs the detector against a fresh snapshot.
func (h *Handlers) DetectOpportunities(c *gin.Context) {
	campaignID := c.Param("id")

	opportunities, err := h.monitor.DetectOpportunities(c.Request.Context(), campaignID)
	if err != nil {
		c.Error(err)
		return
	}

	utils.SendSuccess(c, opportunities)
}

// GetRecentOpportunities returns the journaled detections for a campaign.
func (h *Handlers) GetRecentOpportunities(c *gin.Context) {
	campaignID := c.Param("id")
	limit := intQuery(c, "limit", 20)

	opportunities, err := h.repos.Snapshot.RecentOpportunities(c.Request.Context(), campaignID, limit)
	if err != nil {
		c.Error(apperrors.Wrap(err, http.StatusInternalServerError, "Failed to read opportunity journal"))
		return
	}

	utils.SendSuccess(c, opportunities)
}

// GetPredictiveScore produces the campaign's predictive score, falling back
// to the local model when the remote service is unavailable.
func (h *Handlers) GetPredictiveScore(c *gin.Context) {
	campaignID := c.Param("id")

	score, err := h.monitor.GeneratePredictiveScore(c.Request.Context(), campaignID)
	if err != nil {
		c.Error(err)
		return
	}

	utils.SendSuccess(c, score)
}

func parsePlatformsQuery(raw []string) ([]analytics.Platform, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	platforms := make([]analytics.Platform, 0, len(raw))
	for _, s := range raw {
		platform, err := analytics.ParsePlatform(s)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, platform)
	}
	return platforms, nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
