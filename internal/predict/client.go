package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxResponseBytes caps the inference response body.
const maxResponseBytes = 1 << 20 // 1MB

// Client calls the model-serving endpoint over HTTP.
//
// Request:  POST {baseURL}/predict
//
//	{"latitude": ..., "longitude": ..., "features": {...}}
//
// Response: {"predictions": {"ph": {"value": ..., "confidenceScore": ..., "qualityTier": ...}, ...}}
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a prediction client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// predictRequest is the wire format sent to the inference backend.
type predictRequest struct {
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Features  map[string]float64 `json:"features,omitempty"`
}

// predictResponse is the wire format returned by the inference backend.
type predictResponse struct {
	Predictions map[string]Prediction `json:"predictions"`
}

// Predict runs inference for the given coordinates and optional
// spectral/sensor features.
//
// Coordinates are validated before the backend is contacted; bound
// violations fail fast with ErrLatitudeRange/ErrLongitudeRange.
func (c *Client) Predict(ctx context.Context, lat, lon float64, features map[string]float64) (map[string]Prediction, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	body, err := json.Marshal(predictRequest{Latitude: lat, Longitude: lon, Features: features})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var parsed predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	if len(parsed.Predictions) == 0 {
		return nil, fmt.Errorf("%w: empty prediction set", ErrServiceUnavailable)
	}

	// Normalize: clamp confidence and fill missing tiers so downstream code
	// never sees a confidence outside [0,1].
	for target, p := range parsed.Predictions {
		if p.Confidence < 0 {
			p.Confidence = 0
		}
		if p.Confidence > 1 {
			p.Confidence = 1
		}
		if p.Tier == "" {
			p.Tier = TierForConfidence(p.Confidence)
		}
		parsed.Predictions[target] = p
	}

	c.logger.Debug("prediction completed",
		"latitude", lat, "longitude", lon, "targets", len(parsed.Predictions))
	return parsed.Predictions, nil
}
