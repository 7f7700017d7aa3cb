// Package mapbox implements domain.Geocoder for the location search box
// using the Mapbox Geocoding API. The adapter is feature-flagged by token
// presence; without a token the service falls back to free-text locations.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/air-quality-monitor/internal/domain"
	"github.com/couchcryptid/air-quality-monitor/internal/observability"
)

const maxSuggestions = 5

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		logger:  logger,
		metrics: metrics,
	}
}

// Search returns up to five place suggestions for the query, ranked by
// Mapbox relevance.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Place, error) {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {fmt.Sprint(maxSuggestions)},
		"types":        {"place,locality"},
	}

	start := time.Now()
	resp, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.UpstreamDuration.WithLabelValues("mapbox").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("mapbox", "error").Inc()
		return nil, err
	}
	c.metrics.UpstreamRequests.WithLabelValues("mapbox", "ok").Inc()

	places := make([]domain.Place, 0, len(resp.Features))
	for _, f := range resp.Features {
		if len(f.Center) != 2 {
			continue
		}
		places = append(places, domain.Place{
			Name: f.PlaceName,
			// Mapbox uses lon,lat order.
			Lon: f.Center[0],
			Lat: f.Center[1],
		})
	}
	return places, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return response{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}
	return mapboxResp, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
