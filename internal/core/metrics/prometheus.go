package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the service's Prometheus instruments.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	snapshotsNormalized *prometheus.CounterVec
	collectorErrors     *prometheus.CounterVec
	opportunitiesTotal  *prometheus.CounterVec
	predictionRequests  *prometheus.CounterVec
	predictionFallbacks prometheus.Counter
	monitorTickDuration *prometheus.HistogramVec
	activeMonitors      prometheus.Gauge
	wsClients           prometheus.Gauge
}

// Config contains configuration for metrics collection.
type Config struct {
	Enabled bool
	Prefix  string
}

// NewCollector registers and returns the service's Prometheus collectors.
// Registration uses a dedicated registry when one is given, which keeps
// parallel test instances from colliding on the global default.
func NewCollector(cfg Config, registerer prometheus.Registerer) *Collector {
	if cfg.Prefix == "" {
		cfg.Prefix = "tracker"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)
	prefix := cfg.Prefix

	return &Collector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		snapshotsNormalized: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_snapshots_normalized_total",
				Help: "Platform metric snapshots normalized",
			},
			[]string{"platform"},
		),
		collectorErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_collector_errors_total",
				Help: "Collector or normalization failures by platform",
			},
			[]string{"platform"},
		),
		opportunitiesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_opportunities_detected_total",
				Help: "Viral opportunities detected by urgency",
			},
			[]string{"urgency", "type"},
		),
		predictionRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_prediction_requests_total",
				Help: "Predictive score requests by outcome",
			},
			[]string{"outcome"},
		),
		predictionFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_prediction_fallbacks_total",
				Help: "Predictions served by the local fallback heuristic",
			},
		),
		monitorTickDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_monitor_tick_duration_seconds",
				Help:    "Duration of periodic detection ticks",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"campaign_id"},
		),
		activeMonitors: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_active_monitors",
				Help: "Campaigns currently being monitored",
			},
		),
		wsClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_websocket_clients",
				Help: "Connected websocket dashboard clients",
			},
		),
	}
}

// RecordHTTPRequest records one handled HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSnapshot records a normalized platform snapshot.
func (c *Collector) RecordSnapshot(platform string) {
	c.snapshotsNormalized.WithLabelValues(platform).Inc()
}

// RecordCollectorError records a collector or normalization failure.
func (c *Collector) RecordCollectorError(platform string) {
	c.collectorErrors.WithLabelValues(platform).Inc()
}

// RecordOpportunity records one detected opportunity.
func (c *Collector) RecordOpportunity(urgency, opportunityType string) {
	c.opportunitiesTotal.WithLabelValues(urgency, opportunityType).Inc()
}

// RecordPrediction records a prediction request outcome ("ok" or "error").
// Fallback-served predictions count as "ok" here and are distinguished by
// the dedicated fallback counter.
func (c *Collector) RecordPrediction(outcome string) {
	c.predictionRequests.WithLabelValues(outcome).Inc()
}

// RecordPredictionFallback counts a fallback-served prediction.
func (c *Collector) RecordPredictionFallback() {
	c.predictionFallbacks.Inc()
}

// ObserveTick records the duration of one monitoring tick.
func (c *Collector) ObserveTick(campaignID string, duration time.Duration) {
	c.monitorTickDuration.WithLabelValues(campaignID).Observe(duration.Seconds())
}

// SetActiveMonitors updates the active-monitor gauge.
func (c *Collector) SetActiveMonitors(n int) {
	c.activeMonitors.Set(float64(n))
}

// SetWebSocketClients updates the connected-client gauge.
func (c *Collector) SetWebSocketClients(n int) {
	c.wsClients.Set(float64(n))
}
