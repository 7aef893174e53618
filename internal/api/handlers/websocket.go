package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/totalaudio/tracker-backend-go/internal/websocket"
	"github.com/totalaudio/tracker-backend-go/pkg/utils"
)

// WebSocketHandler upgrades the connection and hands it to the hub.
func (h *Handlers) WebSocketHandler(hub *websocket.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		websocket.HandleWebSocket(hub, c.Writer, c.Request)
	}
}

// GetWebSocketStats exposes hub statistics for the dashboard.
func (h *Handlers) GetWebSocketStats(c *gin.Context) {
	utils.SendSuccess(c, h.wsHub.Stats())
}
