package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/totalaudio/tracker-backend-go/internal/api/handlers"
	"github.com/totalaudio/tracker-backend-go/internal/api/middleware"
	"github.com/totalaudio/tracker-backend-go/internal/config"
	"github.com/totalaudio/tracker-backend-go/internal/core/metrics"
	"github.com/totalaudio/tracker-backend-go/internal/core/monitor"
	"github.com/totalaudio/tracker-backend-go/internal/database/repositories"
	"github.com/totalaudio/tracker-backend-go/internal/websocket"
)

// NewRouter creates and configures the main HTTP router.
func NewRouter(
	cfg *config.Config,
	repos *repositories.Repositories,
	monitorService *monitor.Service,
	wsHub *websocket.Hub,
	metricsCollector *metrics.Collector,
	registry *prometheus.Registry,
	health *metrics.HealthChecker,
	logger *logrus.Logger,
) *gin.Engine {
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware())
	if metricsCollector != nil {
		router.Use(middleware.MetricsMiddleware(metricsCollector))
	}

	rateLimiter := middleware.NewRateLimiter(100, 200)
	router.Use(rateLimiter.RateLimitMiddleware())

	// Innermost so the error response is written before the logging and
	// metrics middlewares observe the final status.
	router.Use(middleware.ErrorResponseMiddleware(logger))

	h := handlers.NewHandlers(cfg, repos, monitorService, wsHub, health, logger)

	// Public routes
	router.GET("/health", h.Health)
	router.GET("/ws", h.WebSocketHandler(wsHub))
	if cfg.Metrics.Enabled && registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	if cfg.Auth.Enabled {
		api.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	}
	{
		campaigns := api.Group("/campaigns")
		{
			campaigns.GET("", h.GetCampaigns)
			campaigns.POST("", h.CreateCampaign)
			campaigns.GET("/:id", h.GetCampaign)
			campaigns.PUT("/:id", h.UpdateCampaign)
			campaigns.DELETE("/:id", h.DeleteCampaign)

			campaigns.GET("/:id/performance", h.GetCampaignPerformance)
			campaigns.GET("/:id/performance/history", h.GetPerformanceHistory)
			campaigns.GET("/:id/opportunities", h.GetRecentOpportunities)
			campaigns.POST("/:id/opportunities/detect", h.DetectOpportunities)
			campaigns.GET("/:id/prediction", h.GetPredictiveScore)

			campaigns.POST("/:id/monitor", h.StartMonitoring)
			campaigns.DELETE("/:id/monitor", h.StopMonitoring)
		}

		api.GET("/monitors", h.GetMonitors)
		api.GET("/ws/stats", h.GetWebSocketStats)
	}

	return router
}
