package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/totalaudio/tracker-backend-go/pkg/version"
)

// Health reports overall service health including registered checks and
// basic host stats.
func (h *Handlers) Health(c *gin.Context) {
	report := h.health.Report()

	status := http.StatusOK
	if report.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":     report.Status,
		"version":    version.GetVersion(),
		"timestamp":  report.Timestamp,
		"components": report.Components,
		"system":     report.SystemInfo,
	})
}
