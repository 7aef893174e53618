package handlers

import (
	"github.com/sirupsen/logrus"
	"github.com/totalaudio/tracker-backend-go/internal/config"
	"github.com/totalaudio/tracker-backend-go/internal/core/metrics"
	"github.com/totalaudio/tracker-backend-go/internal/core/monitor"
	"github.com/totalaudio/tracker-backend-go/internal/database/repositories"
	"github.com/totalaudio/tracker-backend-go/internal/websocket"
)

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	cfg     *config.Config
	repos   *repositories.Repositories
	monitor *monitor.Service
	wsHub   *websocket.Hub
	health  *metrics.HealthChecker
	log     *logrus.Logger
}

// NewHandlers creates a handlers instance.
func NewHandlers(
	cfg *config.Config,
	repos *repositories.Repositories,
	monitorService *monitor.Service,
	wsHub *websocket.Hub,
	health *metrics.HealthChecker,
	logger *logrus.Logger,
) *Handlers {
	return &Handlers{
		cfg:     cfg,
		repos:   repos,
		monitor: monitorService,
		wsHub:   wsHub,
		health:  health,
		log:     logger,
	}
}
