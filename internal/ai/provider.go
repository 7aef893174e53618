package ai

import (
	"context"
	"time"

	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
)

// PredictionProvider defines the interface a remote prediction backend must
// implement. It is a superset of analytics.PredictionClient so providers can
// be handed straight to the predictor.
type PredictionProvider interface {
	Predict(ctx context.Context, req analytics.PredictionRequest) (*analytics.PredictiveScore, error)

	GetName() string
	IsAvailable(ctx context.Context) bool
	HealthCheck(ctx context.Context) error
}

// ProviderStatus reports the observed state of a provider.
type ProviderStatus struct {
	Name              string    `json:"name"`
	Available         bool      `json:"available"`
	LastHealthCheck   time.Time `json:"last_health_check"`
	ErrorCount        int64     `json:"error_count"`
	RequestCount      int64     `json:"request_count"`
	AverageResponseMs int64     `json:"average_response_ms"`
}

// ProviderError represents errors from prediction providers
type ProviderError struct {
	Provider   string `json:"provider"`
	Type       string `json:"type"` // "network", "status", "decode", "timeout"
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	Underlying error  `json:"-"`
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns true if the error is retryable
func (e *ProviderError) IsRetryable() bool {
	return e.Retryable
}
