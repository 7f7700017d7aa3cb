// Package aqapi is the client for the forecast backend, which serves model
// forecasts, pollutant breakdowns, and health recommendations per city.
// The backend answers 503 while its models are untrained; that is a valid
// empty state, not an outage, and maps to domain.ErrNoData.
package aqapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/air-quality-monitor/internal/domain"
	"github.com/couchcryptid/air-quality-monitor/internal/observability"
)

// Options configures the backend client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Client implements domain.ForecastProvider, domain.PollutantProvider, and
// domain.HealthProvider against the forecast backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a backend client.
func NewClient(opts Options) *Client {
	return &Client{
		baseURL: opts.BaseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Forecast fetches the model forecast for the city. Categories are derived
// locally from the AQI value rather than trusted from the wire, so every
// band decision in the process comes from one classifier.
func (c *Client) Forecast(ctx context.Context, city string, days int) ([]domain.ForecastPoint, error) {
	u := fmt.Sprintf("%s/api/forecast/%s?days=%s",
		c.baseURL, url.PathEscape(city), strconv.Itoa(days))

	var resp forecastResponse
	if err := c.get(ctx, u, "forecast", &resp); err != nil {
		return nil, err
	}

	points := make([]domain.ForecastPoint, 0, len(resp.Forecast))
	for _, day := range resp.Forecast {
		cat := domain.Classify(day.AQI)
		point := domain.ForecastPoint{
			Label:    day.DayName,
			AQI:      day.AQI,
			Category: cat.Label,
			Color:    cat.Color,
		}
		if len(day.Pollutants) > 0 {
			point.Pollutants = make(map[string]float64, len(day.Pollutants))
			for _, p := range day.Pollutants {
				point.Pollutants[p.Name] = p.Value
			}
		}
		points = append(points, point)
	}
	return points, nil
}

// Pollutants fetches the current pollutant breakdown for the city.
func (c *Client) Pollutants(ctx context.Context, city string) ([]domain.Pollutant, error) {
	u := fmt.Sprintf("%s/api/pollutants/%s", c.baseURL, url.PathEscape(city))

	var resp pollutantResponse
	if err := c.get(ctx, u, "pollutants", &resp); err != nil {
		return nil, err
	}

	rows := make([]domain.Pollutant, 0, len(resp.Pollutants))
	for _, p := range resp.Pollutants {
		rows = append(rows, domain.Pollutant{
			Name:        p.Name,
			Value:       p.Value,
			Unit:        p.Unit,
			Limit:       p.Limit,
			Percentage:  p.Percentage,
			Status:      p.Status,
			Description: p.Description,
		})
	}
	return rows, nil
}

// HealthAdvice fetches tiered health recommendations for the city.
func (c *Client) HealthAdvice(ctx context.Context, city string) (domain.HealthAdvice, error) {
	u := fmt.Sprintf("%s/api/health-recommendations/%s", c.baseURL, url.PathEscape(city))

	var resp healthResponse
	if err := c.get(ctx, u, "health", &resp); err != nil {
		return domain.HealthAdvice{}, err
	}

	cat := domain.Classify(resp.AQI)
	return domain.HealthAdvice{
		City:            resp.City,
		AQI:             resp.AQI,
		Category:        cat.Label,
		Recommendations: resp.Recommendations,
	}, nil
}

func (c *Client) get(ctx context.Context, fullURL, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues("aqapi").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("aqapi", "error").Inc()
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusServiceUnavailable:
		c.metrics.UpstreamRequests.WithLabelValues("aqapi", "no_data").Inc()
		c.logger.Debug("backend has no data", "endpoint", endpoint, "status", resp.StatusCode)
		return fmt.Errorf("%s status %d: %w", endpoint, resp.StatusCode, domain.ErrNoData)
	default:
		c.metrics.UpstreamRequests.WithLabelValues("aqapi", "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s API error: status %d: %s", endpoint, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("aqapi", "error").Inc()
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	c.metrics.UpstreamRequests.WithLabelValues("aqapi", "ok").Inc()
	return nil
}

// Backend response types.

type forecastResponse struct {
	City     string `json:"city"`
	Forecast []struct {
		Date       string `json:"date"`
		DayName    string `json:"day_name"`
		AQI        int    `json:"aqi"`
		Pollutants []struct {
			Name  string  `json:"name"`
			Value float64 `json:"value"`
		} `json:"pollutants"`
	} `json:"forecast"`
}

type pollutantResponse struct {
	City       string `json:"city"`
	Pollutants []struct {
		Name        string  `json:"name"`
		Value       float64 `json:"value"`
		Unit        string  `json:"unit"`
		Description string  `json:"description"`
		Limit       float64 `json:"limit"`
		Percentage  float64 `json:"percentage"`
		Status      string  `json:"status"`
	} `json:"pollutants"`
}

type healthResponse struct {
	City            string              `json:"city"`
	AQI             int                 `json:"aqi"`
	Recommendations map[string][]string `json:"recommendations"`
}
