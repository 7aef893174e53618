package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/totalaudio/tracker-backend-go/internal/ai"
	"github.com/totalaudio/tracker-backend-go/internal/api"
	"github.com/totalaudio/tracker-backend-go/internal/collectors"
	"github.com/totalaudio/tracker-backend-go/internal/config"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
	"github.com/totalaudio/tracker-backend-go/internal/core/metrics"
	"github.com/totalaudio/tracker-backend-go/internal/core/monitor"
	"github.com/totalaudio/tracker-backend-go/internal/database"
	"github.com/totalaudio/tracker-backend-go/internal/database/repositories"
	"github.com/totalaudio/tracker-backend-go/internal/websocket"
	"github.com/totalaudio/tracker-backend-go/pkg/logger"
	"github.com/totalaudio/tracker-backend-go/pkg/version"
)

func main() {
	// Load configuration first so the logger picks up the configured level.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.WithField("version", version.GetVersion()).Info("Starting tracker backend")

	// Database and migrations
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	repos := repositories.NewRepositories(db)

	// Prometheus registry and service metrics
	registry := prometheus.NewRegistry()
	metricsCollector := metrics.NewCollector(metrics.Config{
		Enabled: cfg.Metrics.Enabled,
		Prefix:  cfg.Metrics.Prefix,
	}, registry)

	// WebSocket hub for dashboard pushes
	wsHub := websocket.NewHub(log)
	wsHub.SetClientCountHook(metricsCollector.SetWebSocketClients)
	go wsHub.Run()

	// Platform collectors
	collectorRegistry := buildCollectors(cfg, log)

	// Analytics pipeline
	normalizer := analytics.NewNormalizer(log)

	thresholds := analytics.DefaultThresholds()
	if cfg.Monitoring.ThresholdsFile != "" {
		loaded, err := analytics.LoadThresholds(cfg.Monitoring.ThresholdsFile)
		if err != nil {
			log.WithError(err).Warn("Failed to load detector thresholds, using defaults")
		} else {
			thresholds = loaded
		}
	}
	detector := analytics.NewDetector(thresholds, log)

	var predictionProvider ai.PredictionProvider
	if cfg.Prediction.Enabled && cfg.Prediction.URL != "" {
		predictionProvider = ai.NewHTTPProvider(ai.HTTPProviderConfig{
			Name:    cfg.Prediction.Name,
			URL:     cfg.Prediction.URL,
			APIKey:  cfg.Prediction.APIKey,
			Timeout: cfg.Prediction.Timeout,
		}, log)
	}
	predictor := analytics.NewPredictor(predictionProvider, log)
	predictor.SetFallbackHook(metricsCollector.RecordPredictionFallback)

	// Monitoring service
	monitorService := monitor.NewService(
		monitor.Config{
			DefaultPeriod:    cfg.Monitoring.DefaultPeriod,
			RealTimeInterval: cfg.Monitoring.RealTimeInterval,
			HistoryLimit:     cfg.Monitoring.HistoryLimit,
		},
		collectorRegistry,
		normalizer,
		detector,
		predictor,
		repos.Snapshot,
		wsHub,
		metricsCollector,
		log,
	)
	if err := monitorService.Start(); err != nil {
		log.Fatal("Failed to start monitoring service: ", err)
	}

	// Health checks
	health := metrics.NewHealthChecker()
	health.RegisterCheck("database", func() metrics.HealthStatus {
		if err := db.Ping(); err != nil {
			return metrics.Unhealthy("database unreachable: " + err.Error())
		}
		return metrics.Healthy("database reachable")
	})
	health.RegisterCheck("monitors", func() metrics.HealthStatus {
		status := metrics.Healthy(fmt.Sprintf("%d active monitors", len(monitorService.ActiveMonitors())))
		return status
	})
	if predictionProvider != nil {
		health.RegisterCheck("prediction", func() metrics.HealthStatus {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if !predictionProvider.IsAvailable(ctx) {
				return metrics.Unhealthy(predictionProvider.GetName() + " unreachable (predictions degrade to local fallback)")
			}
			return metrics.Healthy(predictionProvider.GetName() + " reachable")
		})
	}

	router := api.NewRouter(cfg, repos, monitorService, wsHub, metricsCollector, registry, health, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed: ", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := monitorService.Stop(ctx); err != nil {
		log.WithError(err).Warn("Monitoring service shutdown incomplete")
	}
	wsHub.Stop()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	log.Info("Server stopped")
}

// buildCollectors wires one collector per platform. Simulated mode seeds
// deterministic local collectors; otherwise Spotify uses its own OAuth2
// stats API and the remaining platforms go through the metrics gateway.
func buildCollectors(cfg *config.Config, log *logrus.Logger) *collectors.Registry {
	registry := collectors.NewRegistry()

	if cfg.Collectors.Simulated {
		for i, platform := range analytics.AllPlatforms {
			registry.Register(collectors.NewSimulatedCollector(platform, cfg.Collectors.Seed+int64(i)))
		}
		return registry
	}

	if cfg.Collectors.Spotify.ClientID != "" {
		registry.Register(collectors.NewSpotifyCollector(collectors.SpotifyConfig{
			ClientID:     cfg.Collectors.Spotify.ClientID,
			ClientSecret: cfg.Collectors.Spotify.ClientSecret,
			TokenURL:     cfg.Collectors.Spotify.TokenURL,
			StatsURL:     cfg.Collectors.Spotify.StatsURL,
		}, log))
	} else {
		log.Warn("Spotify credentials missing, streaming metrics come from the gateway")
		registry.Register(collectors.NewHTTPCollector(analytics.PlatformSpotify, cfg.Collectors.Gateway.BaseURL, cfg.Collectors.Gateway.APIKey, cfg.Collectors.Gateway.Timeout, log))
	}

	for _, platform := range analytics.AllPlatforms {
		if platform == analytics.PlatformSpotify {
			continue
		}
		registry.Register(collectors.NewHTTPCollector(platform, cfg.Collectors.Gateway.BaseURL, cfg.Collectors.Gateway.APIKey, cfg.Collectors.Gateway.Timeout, log))
	}

	return registry
}
