package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/totalaudio/tracker-backend-go/internal/collectors"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
	"github.com/totalaudio/tracker-backend-go/internal/core/metrics"
	"github.com/totalaudio/tracker-backend-go/pkg/logger"
)

const (
	defaultMonitorPeriod = time.Minute
	minMonitorPeriod     = time.Second
	defaultHistoryLimit  = 50
	tickTimeout          = 30 * time.Second
)

// AlertCallback receives each high or critical opportunity found during a
// periodic detection tick. Delivery is at-most-once per tick; an opportunity
// that keeps matching its trigger rule is redelivered every tick.
type AlertCallback func(opportunity analytics.Opportunity)

// MonitorConfig is the per-campaign monitoring configuration.
type MonitorConfig struct {
	Platforms []analytics.Platform `json:"platforms"`
	Period    time.Duration        `json:"period"`
	RealTime  bool                 `json:"real_time"`
}

// MonitorStatus describes one active monitor for the API.
type MonitorStatus struct {
	CampaignID        string               `json:"campaign_id"`
	Platforms         []analytics.Platform `json:"platforms"`
	Period            time.Duration        `json:"period"`
	RealTime          bool                 `json:"real_time"`
	StartedAt         time.Time            `json:"started_at"`
	LastTick          time.Time            `json:"last_tick,omitempty"`
	LastOpportunities int                  `json:"last_opportunities"`
}

// PerformanceSnapshot is one full cross-platform reading of a campaign.
type PerformanceSnapshot struct {
	CampaignID        string                       `json:"campaign_id"`
	Records           []*analytics.PlatformMetrics `json:"records"`
	OverallViralScore float64                      `json:"overall_viral_score"`
	GeneratedAt       time.Time                    `json:"generated_at"`
}

// SnapshotStore persists normalized snapshots and the opportunity journal.
// A nil store is valid; the service then works purely in memory.
type SnapshotStore interface {
	SaveSnapshots(ctx context.Context, records []*analytics.PlatformMetrics) error
	History(ctx context.Context, campaignID string, limit int) ([]*analytics.PlatformMetrics, error)
	SaveOpportunities(ctx context.Context, opportunities []analytics.Opportunity) error
}

// Broadcaster pushes opportunities and fresh performance readings to
// connected dashboard clients.
type Broadcaster interface {
	BroadcastOpportunity(opportunity analytics.Opportunity)
	BroadcastPerformance(campaignID string, records []*analytics.PlatformMetrics, overallScore float64)
}

// Config is the service-level monitoring configuration.
type Config struct {
	DefaultPeriod    time.Duration
	RealTimeInterval time.Duration
	HistoryLimit     int
}

type campaignMonitor struct {
	config            MonitorConfig
	detectEntry       cron.EntryID
	realtimeEntry     cron.EntryID
	hasRealtime       bool
	startedAt         time.Time
	lastTick          time.Time
	lastOpportunities int
}

// Service owns the campaign monitors. All registry state is instance-local
// and constructor-injected, so independent instances (and tests) never
// interfere. The cron chain skips a tick whose predecessor is still running,
// serializing ticks per campaign.
type Service struct {
	config      Config
	registry    *collectors.Registry
	normalizer  *analytics.Normalizer
	detector    *analytics.Detector
	predictor   *analytics.Predictor
	store       SnapshotStore
	broadcaster Broadcaster
	collector   *metrics.Collector
	logger      *logrus.Logger

	cron      *cron.Cron
	monitors  map[string]*campaignMonitor
	callbacks map[string]AlertCallback
	mu        sync.RWMutex
	running   bool
}

// NewService creates the monitoring service.
func NewService(
	cfg Config,
	registry *collectors.Registry,
	normalizer *analytics.Normalizer,
	detector *analytics.Detector,
	predictor *analytics.Predictor,
	store SnapshotStore,
	broadcaster Broadcaster,
	collector *metrics.Collector,
	logger *logrus.Logger,
) *Service {
	if cfg.DefaultPeriod <= 0 {
		cfg.DefaultPeriod = defaultMonitorPeriod
	}
	if cfg.RealTimeInterval <= 0 {
		cfg.RealTimeInterval = 30 * time.Second
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}

	return &Service{
		config:      cfg,
		registry:    registry,
		normalizer:  normalizer,
		detector:    detector,
		predictor:   predictor,
		store:       store,
		broadcaster: broadcaster,
		collector:   collector,
		logger:      logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		monitors:  make(map[string]*campaignMonitor),
		callbacks: make(map[string]AlertCallback),
	}
}

// Start starts the scheduler.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("monitoring service is already running")
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("Campaign monitoring service started")
	return nil
}

// Stop stops the scheduler, waiting for in-flight ticks up to the context
// deadline.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("monitoring service is not running")
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("All monitoring ticks completed")
	case <-ctx.Done():
		s.logger.Warn("Timeout waiting for monitoring ticks to complete")
	}

	s.running = false
	return nil
}

// StartMonitoring registers a campaign and arms its periodic detection tick.
// Registering an already-monitored campaign overwrites the configuration:
// last write wins, old timers are released first.
func (s *Service) StartMonitoring(campaignID string, cfg MonitorConfig) error {
	if campaignID == "" {
		return fmt.Errorf("campaign id is required")
	}

	if len(cfg.Platforms) == 0 {
		cfg.Platforms = s.registry.Platforms()
	}
	for _, platform := range cfg.Platforms {
		if _, err := s.registry.Get(platform); err != nil {
			return err
		}
	}
	if cfg.Period <= 0 {
		cfg.Period = s.config.DefaultPeriod
	}
	if cfg.Period < minMonitorPeriod {
		cfg.Period = minMonitorPeriod
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.monitors[campaignID]; ok {
		s.removeEntriesLocked(existing)
	}

	m := &campaignMonitor{
		config:    cfg,
		startedAt: time.Now().UTC(),
	}
	m.detectEntry = s.cron.Schedule(cron.Every(cfg.Period), cron.FuncJob(func() {
		s.runDetectionTick(campaignID)
	}))
	if cfg.RealTime {
		m.hasRealtime = true
		m.realtimeEntry = s.cron.Schedule(cron.Every(s.config.RealTimeInterval), cron.FuncJob(func() {
			s.runRefreshTick(campaignID)
		}))
	}
	s.monitors[campaignID] = m

	if s.collector != nil {
		s.collector.SetActiveMonitors(len(s.monitors))
	}
	s.logger.WithFields(logrus.Fields{
		"campaign_id": campaignID,
		"platforms":   cfg.Platforms,
		"period":      cfg.Period.String(),
		"real_time":   cfg.RealTime,
	}).Info("Campaign monitoring started")

	return nil
}

// StopMonitoring cancels a campaign's scheduled ticks and removes its
// registry entry and alert callback.
func (s *Service) StopMonitoring(campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.monitors[campaignID]
	if !ok {
		return fmt.Errorf("campaign %s is not being monitored", campaignID)
	}

	s.removeEntriesLocked(m)
	delete(s.monitors, campaignID)
	delete(s.callbacks, campaignID)

	if s.collector != nil {
		s.collector.SetActiveMonitors(len(s.monitors))
	}
	logger.WithCampaign(s.logger, campaignID).Info("Campaign monitoring stopped")
	return nil
}

func (s *Service) removeEntriesLocked(m *campaignMonitor) {
	s.cron.Remove(m.detectEntry)
	if m.hasRealtime {
		s.cron.Remove(m.realtimeEntry)
	}
}

// SetupRealTimeAlerts registers the alert callback for a campaign. One
// callback per campaign; registering again replaces it.
func (s *Service) SetupRealTimeAlerts(campaignID string, callback AlertCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks[campaignID] = callback
}

// IsMonitoring reports whether a campaign has an active monitor.
func (s *Service) IsMonitoring(campaignID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.monitors[campaignID]
	return ok
}

// ActiveMonitors lists every active monitor.
func (s *Service) ActiveMonitors() []MonitorStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]MonitorStatus, 0, len(s.monitors))
	for campaignID, m := range s.monitors {
		statuses = append(statuses, MonitorStatus{
			CampaignID:        campaignID,
			Platforms:         m.config.Platforms,
			Period:            m.config.Period,
			RealTime:          m.config.RealTime,
			StartedAt:         m.startedAt,
			LastTick:          m.lastTick,
			LastOpportunities: m.lastOpportunities,
		})
	}
	return statuses
}

// GetCampaignPerformance collects and normalizes one snapshot per platform,
// then fills in the cross-platform aggregate. A collector or normalization
// failure on any platform fails the whole snapshot; partial snapshots would
// silently skew the aggregate.
func (s *Service) GetCampaignPerformance(ctx context.Context, campaignID string, platforms []analytics.Platform) (*PerformanceSnapshot, error) {
	if len(platforms) == 0 {
		platforms = s.monitoredPlatforms(campaignID)
	}

	records := make([]*analytics.PlatformMetrics, 0, len(platforms))
	for _, platform := range platforms {
		collector, err := s.registry.Get(platform)
		if err != nil {
			return nil, err
		}

		raw, err := collector.Collect(ctx, campaignID)
		if err != nil {
			if s.collector != nil {
				s.collector.RecordCollectorError(string(platform))
			}
			return nil, fmt.Errorf("collect %s metrics: %w", platform, err)
		}

		record, err := s.normalizer.Normalize(campaignID, platform, raw)
		if err != nil {
			if s.collector != nil {
				s.collector.RecordCollectorError(string(platform))
			}
			return nil, err
		}

		if s.collector != nil {
			s.collector.RecordSnapshot(string(platform))
		}
		records = append(records, record)
	}

	overall := analytics.CrossPlatformScore(records)

	if s.store != nil {
		if err := s.store.SaveSnapshots(ctx, records); err != nil {
			logger.WithCampaign(s.logger, campaignID).WithError(err).
				Warn("Failed to persist metric snapshots")
		}
	}

	return &PerformanceSnapshot{
		CampaignID:        campaignID,
		Records:           records,
		OverallViralScore: overall,
		GeneratedAt:       time.Now().UTC(),
	}, nil
}

// DetectOpportunities takes a fresh snapshot and scans it for viral
// opportunities.
func (s *Service) DetectOpportunities(ctx context.Context, campaignID string) ([]analytics.Opportunity, error) {
	snapshot, err := s.GetCampaignPerformance(ctx, campaignID, nil)
	if err != nil {
		return nil, err
	}

	opportunities := s.detector.Detect(snapshot.Records)
	s.recordOpportunities(ctx, opportunities)
	return opportunities, nil
}

// GeneratePredictiveScore forecasts a campaign from its stored history,
// falling back to a fresh snapshot when no history has been persisted yet.
func (s *Service) GeneratePredictiveScore(ctx context.Context, campaignID string) (*analytics.PredictiveScore, error) {
	var history []*analytics.PlatformMetrics

	if s.store != nil {
		stored, err := s.store.History(ctx, campaignID, s.config.HistoryLimit)
		if err != nil {
			logger.WithCampaign(s.logger, campaignID).WithError(err).
				Warn("Failed to load snapshot history")
		} else {
			history = stored
		}
	}

	if len(history) == 0 {
		snapshot, err := s.GetCampaignPerformance(ctx, campaignID, nil)
		if err != nil {
			return nil, err
		}
		history = snapshot.Records
	}

	score, err := s.predictor.GeneratePredictiveScore(ctx, campaignID, history)
	if s.collector != nil {
		switch {
		case err != nil:
			s.collector.RecordPrediction("error")
		default:
			s.collector.RecordPrediction("ok")
		}
	}
	return score, err
}

// runDetectionTick is the fast periodic loop: snapshot, detect, alert,
// broadcast. Each tick is independently idempotent; a failing tick only
// logs, it never tears the monitor down.
func (s *Service) runDetectionTick(campaignID string) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	opportunities, err := s.DetectOpportunities(ctx, campaignID)
	if err != nil {
		logger.WithCampaign(s.logger, campaignID).WithError(err).
			Warn("Monitoring tick failed")
		return
	}

	s.mu.RLock()
	callback := s.callbacks[campaignID]
	s.mu.RUnlock()

	for _, opportunity := range opportunities {
		if s.broadcaster != nil {
			s.broadcaster.BroadcastOpportunity(opportunity)
		}
		if callback != nil && opportunity.Urgency.Rank() >= analytics.UrgencyHigh.Rank() {
			callback(opportunity)
		}
	}

	s.mu.Lock()
	if m, ok := s.monitors[campaignID]; ok {
		m.lastTick = time.Now().UTC()
		m.lastOpportunities = len(opportunities)
	}
	s.mu.Unlock()

	if s.collector != nil {
		s.collector.ObserveTick(campaignID, time.Since(started))
	}
}

// runRefreshTick is the real-time loop: it re-collects performance and
// re-runs detection to keep the opportunity journal warm, without callback
// dispatch.
func (s *Service) runRefreshTick(campaignID string) {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	snapshot, err := s.GetCampaignPerformance(ctx, campaignID, nil)
	if err != nil {
		logger.WithCampaign(s.logger, campaignID).WithError(err).
			Debug("Real-time refresh failed")
		return
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastPerformance(campaignID, snapshot.Records, snapshot.OverallViralScore)
	}

	opportunities := s.detector.Detect(snapshot.Records)
	s.recordOpportunities(ctx, opportunities)
}

func (s *Service) recordOpportunities(ctx context.Context, opportunities []analytics.Opportunity) {
	if len(opportunities) == 0 {
		return
	}

	if s.collector != nil {
		for _, opportunity := range opportunities {
			s.collector.RecordOpportunity(string(opportunity.Urgency), opportunity.OpportunityType)
		}
	}
	if s.store != nil {
		if err := s.store.SaveOpportunities(ctx, opportunities); err != nil {
			s.logger.WithError(err).Warn("Failed to persist opportunities")
		}
	}
}

func (s *Service) monitoredPlatforms(campaignID string) []analytics.Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.monitors[campaignID]; ok {
		return m.config.Platforms
	}
	return s.registry.Platforms()
}
