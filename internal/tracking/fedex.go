package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"example.com/dosepoint/services/device/config"
)

// TrackResult is the carrier's answer for one tracking number
type TrackResult struct {
	Delivered        bool       `json:"delivered"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	SignatureName    string     `json:"signature_name,omitempty"`
	DeliveryAttempts int        `json:"delivery_attempts"`
	DeliveryEstimate *time.Time `json:"delivery_estimate,omitempty"`
}

// Client looks up the current delivery state of a shipment
type Client interface {
	Track(ctx context.Context, trackingID string) (*TrackResult, error)
}

// fedexClient implements Client against the FedEx tracking API
type fedexClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a carrier tracking client
func NewClient(cfg config.TrackingConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &fedexClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Track queries the carrier for the shipment identified by trackingID
func (c *fedexClient) Track(ctx context.Context, trackingID string) (*TrackResult, error) {
	endpoint := fmt.Sprintf("%s/track/v1/shipments/%s", c.baseURL, url.PathEscape(trackingID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tracking request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracking request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tracking lookup for %s returned status %d", trackingID, resp.StatusCode)
	}

	var result TrackResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode tracking response: %w", err)
	}

	return &result, nil
}
