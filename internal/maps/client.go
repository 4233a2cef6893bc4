// Package maps wraps the external distance-matrix provider used to refine
// straight-line distances into routed travel estimates.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/aquaflow/aquaflow-api/internal/models"
	"github.com/aquaflow/aquaflow-api/pkg/config"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

// Route is a single origin-to-destination travel estimate.
type Route struct {
	DistanceKm   float64
	DurationMins float64
}

// Client calls the distance-matrix API with a bounded timeout. Any failure
// surfaces as ErrExternalServiceDegraded so callers fall back to
// straight-line distances instead of failing the match.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient constructs a mapping client. An empty base URL disables the
// provider entirely.
func NewClient(cfg config.MapsConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Enabled reports whether a provider is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type matrixResponse struct {
	Routes []struct {
		DistanceMeters  float64 `json:"distance_meters"`
		DurationSeconds float64 `json:"duration_seconds"`
	} `json:"routes"`
}

// Distances returns routed estimates from origin to each destination, in
// destination order. The result length always matches len(destinations).
func (c *Client) Distances(ctx context.Context, origin models.Location, destinations []models.Location) ([]Route, error) {
	if !c.Enabled() {
		return nil, appErrors.ErrExternalServiceDegraded
	}
	if len(destinations) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("origin", fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude))
	for _, dest := range destinations {
		params.Add("destinations", fmt.Sprintf("%f,%f", dest.Latitude, dest.Longitude))
	}
	params.Set("key", c.apiKey)

	endpoint := fmt.Sprintf("%s/v1/distance-matrix?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build distance-matrix request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("distance-matrix request failed", zap.Error(err))
		return nil, appErrors.ErrExternalServiceDegraded
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("distance-matrix returned error status", zap.Int("status", resp.StatusCode))
		return nil, appErrors.ErrExternalServiceDegraded
	}

	var body matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("distance-matrix payload undecodable", zap.Error(err))
		return nil, appErrors.ErrExternalServiceDegraded
	}
	if len(body.Routes) != len(destinations) {
		c.logger.Warn("distance-matrix route count mismatch",
			zap.Int("expected", len(destinations)), zap.Int("got", len(body.Routes)))
		return nil, appErrors.ErrExternalServiceDegraded
	}

	routes := make([]Route, len(body.Routes))
	for i, r := range body.Routes {
		routes[i] = Route{
			DistanceKm:   r.DistanceMeters / 1000,
			DurationMins: r.DurationSeconds / 60,
		}
	}
	return routes, nil
}
