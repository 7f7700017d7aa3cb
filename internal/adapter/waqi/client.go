// Package waqi implements domain.AQIProvider against the World Air Quality
// Index feed API. A location is either a station/city name or the
// "geo:<lat>;<lon>" form produced by the session.
package waqi

import (
	"bytes"
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

const feedTimeLayout = "2006-01-02 15:04:05"

// Options configures the feed client. An empty BaseURL defaults to the
// public API endpoint.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Client fetches current readings from the feed API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a feed client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.waqi.info"
	}
	return &Client{
		baseURL: opts.BaseURL,
		token:   opts.Token,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// CurrentAQI fetches the feed for the location. A non-"ok" feed status, a
// placeholder "-" reading, or an HTTP error status all mean the station has
// nothing usable and map to domain.ErrNoData.
func (c *Client) CurrentAQI(ctx context.Context, location string) (domain.AQIReading, error) {
	u := fmt.Sprintf("%s/feed/%s/?%s", c.baseURL, url.PathEscape(location), url.Values{
		"token": {c.token},
	}.Encode())

	start := time.Now()
	feed, err := c.fetch(ctx, u)
	c.metrics.UpstreamDuration.WithLabelValues("waqi").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("waqi", "error").Inc()
		return domain.AQIReading{}, err
	}

	if feed.Status != "ok" {
		c.metrics.UpstreamRequests.WithLabelValues("waqi", "no_data").Inc()
		c.logger.Warn("feed returned no data", "location", location, "status", feed.Status)
		return domain.AQIReading{}, fmt.Errorf("feed status %q: %w", feed.Status, domain.ErrNoData)
	}

	value, ok := feed.Data.AQI.value()
	if !ok {
		c.metrics.UpstreamRequests.WithLabelValues("waqi", "no_data").Inc()
		return domain.AQIReading{}, fmt.Errorf("station reported no reading: %w", domain.ErrNoData)
	}

	reading, err := domain.NewReading(value, feed.Data.City.Name)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("waqi", "error").Inc()
		return domain.AQIReading{}, err
	}
	if len(feed.Data.City.Geo) == 2 {
		reading.Lat = feed.Data.City.Geo[0]
		reading.Lon = feed.Data.City.Geo[1]
	}
	if ts, err := time.Parse(feedTimeLayout, feed.Data.Time.S); err == nil {
		reading.Timestamp = ts.UTC()
	}

	c.metrics.UpstreamRequests.WithLabelValues("waqi", "ok").Inc()
	return reading, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) (feedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return feedResponse{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return feedResponse{}, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return feedResponse{}, fmt.Errorf("feed API error: status %d: %s", resp.StatusCode, body)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return feedResponse{}, fmt.Errorf("decode feed response: %w", err)
	}
	return feed, nil
}

// Feed API response types.

type feedResponse struct {
	Status string `json:"status"`
	Data   struct {
		AQI  flexAQI `json:"aqi"`
		City struct {
			Name string    `json:"name"`
			Geo  []float64 `json:"geo"` // [lat, lon]
		} `json:"city"`
		IAQI map[string]struct {
			V float64 `json:"v"`
		} `json:"iaqi"`
		Time struct {
			S string `json:"s"`
		} `json:"time"`
	} `json:"data"`
}

// flexAQI tolerates the feed's habit of sending "-" instead of a number
// when a station has no current reading.
type flexAQI struct {
	raw json.RawMessage
}

func (f *flexAQI) UnmarshalJSON(data []byte) error {
	f.raw = bytes.TrimSpace(data)
	return nil
}

func (f flexAQI) value() (int, bool) {
	var n float64
	if err := json.Unmarshal(f.raw, &n); err != nil {
		return 0, false
	}
	return int(n), true
}
