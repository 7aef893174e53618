package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
)

const defaultPredictionTimeout = 10 * time.Second

// HTTPProvider calls the remote prediction service over HTTP. One POST per
// prediction; any network failure, non-2xx status, or undecodable body comes
// back as a ProviderError, which the predictor translates into its local
// fallback.
type HTTPProvider struct {
	name       string
	url        string
	apiKey     string
	client     *http.Client
	logger     *logrus.Logger
	errorCount atomic.Int64
	reqCount   atomic.Int64
	latencyMs  atomic.Int64
	available  atomic.Bool
	lastHealth atomic.Int64 // unix nanos of the last health check
}

// HTTPProviderConfig configures an HTTPProvider.
type HTTPProviderConfig struct {
	Name    string
	URL     string
	APIKey  string
	Timeout time.Duration
}

// NewHTTPProvider creates an HTTP prediction provider.
func NewHTTPProvider(cfg HTTPProviderConfig, logger *logrus.Logger) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPredictionTimeout
	}
	name := cfg.Name
	if name == "" {
		name = "prediction-http"
	}

	return &HTTPProvider{
		name:   name,
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// predictionResponse is the wire shape the prediction service returns. The
// service is authoritative for its derived numbers; we only reshape them.
type predictionResponse struct {
	Success bool                       `json:"success"`
	Error   string                     `json:"error,omitempty"`
	Result  *analytics.PredictiveScore `json:"result,omitempty"`
}

// Predict issues one prediction request carrying the full metrics history.
func (p *HTTPProvider) Predict(ctx context.Context, req analytics.PredictionRequest) (*analytics.PredictiveScore, error) {
	p.reqCount.Add(1)
	started := time.Now()
	defer func() {
		p.latencyMs.Add(time.Since(started).Milliseconds())
	}()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, p.fail("encode", false, fmt.Errorf("encode prediction request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, p.fail("network", false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, p.fail("network", true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, p.fail("status", resp.StatusCode >= 500,
			fmt.Errorf("prediction service returned status %d", resp.StatusCode))
	}

	var decoded predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, p.fail("decode", false, fmt.Errorf("decode prediction response: %w", err))
	}
	if !decoded.Success || decoded.Result == nil {
		return nil, p.fail("decode", false,
			fmt.Errorf("prediction service reported failure: %s", decoded.Error))
	}

	return decoded.Result, nil
}

// GetName returns the provider name.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// IsAvailable reports whether the provider answered its last health check.
func (p *HTTPProvider) IsAvailable(ctx context.Context) bool {
	return p.HealthCheck(ctx) == nil
}

// HealthCheck probes the prediction service endpoint and records the
// observed availability for Status.
func (p *HTTPProvider) HealthCheck(ctx context.Context) error {
	err := p.probe(ctx)
	p.lastHealth.Store(time.Now().UnixNano())
	p.available.Store(err == nil)
	return err
}

func (p *HTTPProvider) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: p.name, Type: "network", Message: err.Error(), Retryable: true, Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &ProviderError{
			Provider: p.name,
			Type:     "status",
			Message:  fmt.Sprintf("prediction service unhealthy: status %d", resp.StatusCode),
		}
	}
	return nil
}

// Status reports the provider's observed state for the health endpoint.
func (p *HTTPProvider) Status() ProviderStatus {
	status := ProviderStatus{
		Name:         p.name,
		Available:    p.available.Load(),
		RequestCount: p.reqCount.Load(),
		ErrorCount:   p.errorCount.Load(),
	}
	if nanos := p.lastHealth.Load(); nanos > 0 {
		status.LastHealthCheck = time.Unix(0, nanos)
	}
	if status.RequestCount > 0 {
		status.AverageResponseMs = p.latencyMs.Load() / status.RequestCount
	}
	return status
}

func (p *HTTPProvider) fail(errType string, retryable bool, err error) *ProviderError {
	p.errorCount.Add(1)
	if p.logger != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"provider":   p.name,
			"error_type": errType,
		}).Warn("Prediction request failed")
	}
	return &ProviderError{
		Provider:   p.name,
		Type:       errType,
		Message:    err.Error(),
		Retryable:  retryable,
		Underlying: err,
	}
}
