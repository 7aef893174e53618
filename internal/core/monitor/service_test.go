package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totalaudio/tracker-backend-go/internal/collectors"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
)

type fixedCollector struct {
	platform analytics.Platform
	payload  analytics.RawPayload
	err      error
}

func (f *fixedCollector) Platform() analytics.Platform { return f.platform }

func (f *fixedCollector) Collect(ctx context.Context, campaignID string) (analytics.RawPayload, error) {
	if f.err != nil {
		return analytics.RawPayload{}, f.err
	}
	return f.payload, nil
}

type memoryStore struct {
	mu            sync.Mutex
	snapshots     []*analytics.PlatformMetrics
	opportunities []analytics.Opportunity
}

func (m *memoryStore) SaveSnapshots(ctx context.Context, records []*analytics.PlatformMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, records...)
	return nil
}

func (m *memoryStore) History(ctx context.Context, campaignID string, limit int) ([]*analytics.PlatformMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var history []*analytics.PlatformMetrics
	for _, record := range m.snapshots {
		if record.CampaignID == campaignID {
			history = append(history, record)
		}
	}
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}

func (m *memoryStore) SaveOpportunities(ctx context.Context, opportunities []analytics.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opportunities = append(m.opportunities, opportunities...)
	return nil
}

func pf(v float64) *float64 { return &v }

func viralSpotifyPayload() analytics.RawPayload {
	return analytics.RawPayload{
		Growth24h: pf(40),
		Growth7d:  pf(90),
		Growth30d: pf(200),
		Velocity:  pf(1.8),
		Streaming: &analytics.StreamingRaw{
			TotalStreams:      200000,
			DailyStreams:      9000,
			StreamingVelocity: 6000,
			UniqueListeners:   50000,
			PlaylistAdds:      80,
			PlaylistReaches:   1000000,
		},
	}
}

func quietTiktokPayload() analytics.RawPayload {
	return analytics.RawPayload{
		Growth24h: pf(2),
		Growth7d:  pf(5),
		Growth30d: pf(12),
		Velocity:  pf(1.0),
		Social: &analytics.SocialRaw{
			Followers:      10000,
			Shares:         20,
			Reach:          50000,
			Mentions:       10,
			EngagementRate: 3,
		},
	}
}

func newTestService(t *testing.T, store SnapshotStore, cols ...collectors.Collector) *Service {
	t.Helper()

	registry := collectors.NewRegistry()
	if len(cols) == 0 {
		cols = []collectors.Collector{
			&fixedCollector{platform: analytics.PlatformSpotify, payload: viralSpotifyPayload()},
			&fixedCollector{platform: analytics.PlatformTikTok, payload: quietTiktokPayload()},
		}
	}
	for _, c := range cols {
		registry.Register(c)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return NewService(
		Config{DefaultPeriod: time.Second},
		registry,
		analytics.NewNormalizer(log),
		analytics.NewDetector(analytics.DefaultThresholds(), log),
		analytics.NewPredictor(nil, log),
		store,
		nil,
		nil,
		log,
	)
}

func TestService_StartStopMonitoring(t *testing.T) {
	s := newTestService(t, nil)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	require.NoError(t, s.StartMonitoring("camp-1", MonitorConfig{}))
	assert.True(t, s.IsMonitoring("camp-1"))

	statuses := s.ActiveMonitors()
	require.Len(t, statuses, 1)
	assert.Equal(t, "camp-1", statuses[0].CampaignID)
	assert.Equal(t, time.Second, statuses[0].Period)

	require.NoError(t, s.StopMonitoring("camp-1"))
	assert.False(t, s.IsMonitoring("camp-1"))
	assert.Empty(t, s.ActiveMonitors())
}

func TestService_StopUnknownCampaign(t *testing.T) {
	s := newTestService(t, nil)
	assert.Error(t, s.StopMonitoring("nope"))
}

func TestService_StartMonitoringUnknownPlatform(t *testing.T) {
	s := newTestService(t, nil)
	err := s.StartMonitoring("camp-1", MonitorConfig{Platforms: []analytics.Platform{analytics.PlatformEmail}})
	assert.Error(t, err)
}

func TestService_RestartOverwritesConfig(t *testing.T) {
	s := newTestService(t, nil)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	require.NoError(t, s.StartMonitoring("camp-1", MonitorConfig{Period: time.Second}))
	require.NoError(t, s.StartMonitoring("camp-1", MonitorConfig{Period: 5 * time.Second, RealTime: true}))

	statuses := s.ActiveMonitors()
	require.Len(t, statuses, 1)
	assert.Equal(t, 5*time.Second, statuses[0].Period)
	assert.True(t, statuses[0].RealTime)
}

func TestService_GetCampaignPerformance(t *testing.T) {
	store := &memoryStore{}
	s := newTestService(t, store)

	snapshot, err := s.GetCampaignPerformance(context.Background(), "camp-1", nil)
	require.NoError(t, err)
	require.Len(t, snapshot.Records, 2)

	// Every record ends up with a viral score: intrinsic for social,
	// inherited aggregate for streaming.
	for _, record := range snapshot.Records {
		require.NotNil(t, record.ViralScore, "platform %s missing viral score", record.Platform)
	}
	assert.GreaterOrEqual(t, snapshot.OverallViralScore, 0.0)
	assert.LessOrEqual(t, snapshot.OverallViralScore, 100.0)

	// Snapshots were persisted.
	assert.Len(t, store.snapshots, 2)
}

func TestService_PerformanceFailsOnBrokenCollector(t *testing.T) {
	s := newTestService(t, nil,
		&fixedCollector{platform: analytics.PlatformSpotify, err: errors.New("api down")},
	)

	_, err := s.GetCampaignPerformance(context.Background(), "camp-1", nil)
	assert.ErrorContains(t, err, "api down")
}

func TestService_PerformanceFailsOnInvalidPayload(t *testing.T) {
	s := newTestService(t, nil,
		&fixedCollector{platform: analytics.PlatformSpotify, payload: analytics.RawPayload{}},
	)

	_, err := s.GetCampaignPerformance(context.Background(), "camp-1", nil)

	var invalid *analytics.InvalidPayloadError
	assert.ErrorAs(t, err, &invalid)
}

func TestService_DetectOpportunities(t *testing.T) {
	store := &memoryStore{}
	s := newTestService(t, store)

	opportunities, err := s.DetectOpportunities(context.Background(), "camp-1")
	require.NoError(t, err)
	require.NotEmpty(t, opportunities)

	assert.Equal(t, analytics.OpportunityStreamingVelocitySpike, opportunities[0].OpportunityType)
	assert.Equal(t, analytics.UrgencyCritical, opportunities[0].Urgency)
	assert.NotEmpty(t, store.opportunities)
}

func TestService_TickDispatchesHighUrgencyAlerts(t *testing.T) {
	s := newTestService(t, &memoryStore{})
	require.NoError(t, s.StartMonitoring("camp-1", MonitorConfig{}))

	var mu sync.Mutex
	var alerted []analytics.Opportunity
	s.SetupRealTimeAlerts("camp-1", func(opportunity analytics.Opportunity) {
		mu.Lock()
		defer mu.Unlock()
		alerted = append(alerted, opportunity)
	})

	s.runDetectionTick("camp-1")

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, alerted)
	for _, opportunity := range alerted {
		assert.GreaterOrEqual(t, opportunity.Urgency.Rank(), analytics.UrgencyHigh.Rank())
	}

	statuses := s.ActiveMonitors()
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].LastTick.IsZero())
	assert.Equal(t, len(alerted), statuses[0].LastOpportunities)
}

func TestService_TickWithoutCallbackStillRecords(t *testing.T) {
	store := &memoryStore{}
	s := newTestService(t, store)
	require.NoError(t, s.StartMonitoring("camp-1", MonitorConfig{}))

	s.runDetectionTick("camp-1")
	assert.NotEmpty(t, store.opportunities)
}

type stubBroadcaster struct {
	mu            sync.Mutex
	opportunities []analytics.Opportunity
	performances  []string
	scores        []float64
}

func (b *stubBroadcaster) BroadcastOpportunity(opportunity analytics.Opportunity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opportunities = append(b.opportunities, opportunity)
}

func (b *stubBroadcaster) BroadcastPerformance(campaignID string, records []*analytics.PlatformMetrics, overallScore float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.performances = append(b.performances, campaignID)
	b.scores = append(b.scores, overallScore)
}

func TestService_RefreshTickBroadcastsPerformance(t *testing.T) {
	broadcaster := &stubBroadcaster{}
	s := newTestService(t, &memoryStore{})
	s.broadcaster = broadcaster

	require.NoError(t, s.StartMonitoring("camp-1", MonitorConfig{RealTime: true}))
	s.runRefreshTick("camp-1")

	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	require.Len(t, broadcaster.performances, 1)
	assert.Equal(t, "camp-1", broadcaster.performances[0])
	assert.GreaterOrEqual(t, broadcaster.scores[0], 0.0)
	assert.LessOrEqual(t, broadcaster.scores[0], 100.0)
}

func TestService_DetectionTickBroadcastsOpportunities(t *testing.T) {
	broadcaster := &stubBroadcaster{}
	s := newTestService(t, &memoryStore{})
	s.broadcaster = broadcaster

	require.NoError(t, s.StartMonitoring("camp-1", MonitorConfig{}))
	s.runDetectionTick("camp-1")

	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	require.NotEmpty(t, broadcaster.opportunities)
	assert.Equal(t, "camp-1", broadcaster.opportunities[0].CampaignID)
}

func TestService_InstancesAreIsolated(t *testing.T) {
	a := newTestService(t, nil)
	b := newTestService(t, nil)

	require.NoError(t, a.StartMonitoring("camp-1", MonitorConfig{}))
	assert.True(t, a.IsMonitoring("camp-1"))
	assert.False(t, b.IsMonitoring("camp-1"))
}

func TestService_GeneratePredictiveScoreFromHistory(t *testing.T) {
	store := &memoryStore{}
	s := newTestService(t, store)

	// Seed history through a performance snapshot.
	_, err := s.GetCampaignPerformance(context.Background(), "camp-1", nil)
	require.NoError(t, err)

	score, err := s.GeneratePredictiveScore(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, "camp-1", score.CampaignID)
	assert.GreaterOrEqual(t, score.SuccessProbability, 20.0)
	assert.LessOrEqual(t, score.SuccessProbability, 95.0)
}

func TestService_GeneratePredictiveScoreWithoutStore(t *testing.T) {
	s := newTestService(t, nil)

	// No store: the service takes a fresh snapshot for the forecast.
	score, err := s.GeneratePredictiveScore(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, "cross-platform", score.Platform)
}
