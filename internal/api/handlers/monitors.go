package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/totalaudio/tracker-backend-go/internal/core/monitor"
	"github.com/totalaudio/tracker-backend-go/internal/websocket"
	apperrors "github.com/totalaudio/tracker-backend-go/pkg/errors"
	"github.com/totalaudio/tracker-backend-go/pkg/utils"
)

type startMonitorRequest struct {
	Platforms     []string `json:"platforms"`
	PeriodSeconds int      `json:"period_seconds"`
	RealTime      bool     `json:"real_time"`
}

// StartMonitoring begins (or reconfigures) periodic monitoring for a
// campaign. Starting an already monitored campaign replaces its config.
func (h *Handlers) StartMonitoring(c *gin.Context) {
	campaignID := c.Param("id")

	var req startMonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.New(http.StatusBadRequest, "Invalid monitor config").WithDetails(err.Error()))
		return
	}

	platforms, err := parsePlatformsQuery(req.Platforms)
	if err != nil {
		c.Error(err)
		return
	}

	cfg := monitor.MonitorConfig{
		Platforms: platforms,
		Period:    time.Duration(req.PeriodSeconds) * time.Second,
		RealTime:  req.RealTime,
	}

	if err := h.monitor.StartMonitoring(campaignID, cfg); err != nil {
		c.Error(err)
		return
	}

	h.wsHub.Broadcast(websocket.Message{
		Type:       websocket.MessageTypeMonitorStarted,
		CampaignID: campaignID,
		Data: map[string]interface{}{
			"platforms": req.Platforms,
			"real_time": req.RealTime,
		},
	})

	utils.SendSuccess(c, gin.H{"campaign_id": campaignID, "monitoring": true})
}

// StopMonitoring cancels a campaign's monitor.
func (h *Handlers) StopMonitoring(c *gin.Context) {
	campaignID := c.Param("id")

	if err := h.monitor.StopMonitoring(campaignID); err != nil {
		c.Error(apperrors.ErrMonitorNotFound)
		return
	}

	h.wsHub.Broadcast(websocket.Message{
		Type:       websocket.MessageTypeMonitorStopped,
		CampaignID: campaignID,
		Data:       map[string]interface{}{},
	})

	utils.SendSuccess(c, gin.H{"campaign_id": campaignID, "monitoring": false})
}

// GetMonitors lists all active monitors.
func (h *Handlers) GetMonitors(c *gin.Context) {
	utils.SendSuccess(c, h.monitor.ActiveMonitors())
}
