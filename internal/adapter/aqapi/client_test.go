package aqapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-monitor/internal/domain"
	"github.com/couchcryptid/air-quality-monitor/internal/observability"
)

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    observability.NewMetricsForTesting(),
	}
}

func TestClient_Forecast_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/forecast/Krakow", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("days"))

		fmt.Fprint(w, `{
			"city": "Krakow",
			"forecast": [
				{"date": "2025-03-14", "day_name": "Today", "aqi": 68,
				 "pollutants": [{"name": "PM2.5", "value": 21.3}]},
				{"date": "2025-03-15", "day_name": "Tomorrow", "aqi": 155}
			]
		}`)
	}))
	defer srv.Close()

	points, err := testClient(srv.URL).Forecast(context.Background(), "Krakow", 4)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "Today", points[0].Label)
	assert.Equal(t, 68, points[0].AQI)
	assert.Equal(t, "Moderate", points[0].Category)
	assert.Equal(t, "yellow", points[0].Color)
	assert.Equal(t, 21.3, points[0].Pollutants["PM2.5"])

	// The category comes from the local classifier, not the wire.
	assert.Equal(t, "Unhealthy", points[1].Category)
	assert.Equal(t, "red", points[1].Color)
}

func TestClient_Forecast_UntrainedModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail": "No trained models available"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), "Krakow", 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoData))
}

func TestClient_Forecast_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), "Krakow", 4)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNoData))
}

func TestClient_Pollutants_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/pollutants/Krakow", r.URL.Path)
		fmt.Fprint(w, `{
			"city": "Krakow",
			"pollutants": [
				{"name": "PM2.5", "value": 35.2, "unit": "µg/m³",
				 "description": "Fine particulate matter", "limit": 35,
				 "percentage": 100.6, "status": "high"}
			]
		}`)
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).Pollutants(context.Background(), "Krakow")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "PM2.5", rows[0].Name)
	assert.Equal(t, 35.2, rows[0].Value)
	assert.Equal(t, "high", rows[0].Status)
}

func TestClient_HealthAdvice(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/health-recommendations/Krakow", r.URL.Path)
			fmt.Fprint(w, `{
				"city": "Krakow",
				"aqi": 120,
				"category": "wrong on purpose",
				"recommendations": {
					"general": ["Reduce prolonged outdoor exertion"],
					"sensitive": ["Keep rescue medications handy"],
					"activities": ["Indoor activities preferred"],
					"precautions": ["Wear N95 masks outdoors"]
				}
			}`)
		}))
		defer srv.Close()

		advice, err := testClient(srv.URL).HealthAdvice(context.Background(), "Krakow")
		require.NoError(t, err)
		assert.Equal(t, 120, advice.AQI)
		assert.Equal(t, "Unhealthy for Sensitive Groups", advice.Category)
		assert.Len(t, advice.Recommendations, 4)
	})

	t.Run("no data for city", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"detail": "No data found"}`, http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).HealthAdvice(context.Background(), "Atlantis")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNoData))
	})
}
