package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
)

const defaultCollectTimeout = 15 * time.Second

// HTTPCollector fetches raw metrics for one platform from an internal
// metrics gateway that already speaks the RawPayload shape. The social and
// email platforms all go through the gateway; only Spotify has a dedicated
// collector because of its token flow.
type HTTPCollector struct {
	platform analytics.Platform
	baseURL  string
	apiKey   string
	client   *http.Client
	logger   *logrus.Logger
}

// NewHTTPCollector creates a gateway-backed collector for a platform.
func NewHTTPCollector(platform analytics.Platform, baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *HTTPCollector {
	if timeout <= 0 {
		timeout = defaultCollectTimeout
	}

	return &HTTPCollector{
		platform: platform,
		baseURL:  baseURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Platform returns the platform this collector serves.
func (c *HTTPCollector) Platform() analytics.Platform {
	return c.platform
}

// Collect fetches the campaign's raw payload from the gateway.
func (c *HTTPCollector) Collect(ctx context.Context, campaignID string) (analytics.RawPayload, error) {
	endpoint := fmt.Sprintf("%s/metrics/%s?campaign_id=%s",
		c.baseURL, url.PathEscape(string(c.platform)), url.QueryEscape(campaignID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return analytics.RawPayload{}, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return analytics.RawPayload{}, fmt.Errorf("%s metrics request: %w", c.platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return analytics.RawPayload{}, fmt.Errorf("%s metrics request: status %d", c.platform, resp.StatusCode)
	}

	var payload analytics.RawPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return analytics.RawPayload{}, fmt.Errorf("decode %s metrics: %w", c.platform, err)
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"campaign_id": campaignID,
			"platform":    c.platform,
		}).Debug("Collected platform metrics")
	}

	return payload, nil
}
