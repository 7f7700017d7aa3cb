package domain

import "context"

// AQIProvider fetches a live ground-truth reading for a location. Location
// is a place name or "geo:<lat>;<lon>". Implementations return ErrNoData
// when the feed has no station for the location.
type AQIProvider interface {
	CurrentAQI(ctx context.Context, location string) (AQIReading, error)
}

// ForecastProvider fetches a multi-day forecast series from the model
// backend. A backend whose model is not yet trained returns ErrNoData.
type ForecastProvider interface {
	Forecast(ctx context.Context, city string, days int) ([]ForecastPoint, error)
}

// Pollutant is one row of the per-city pollutant breakdown.
type Pollutant struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	Limit       float64 `json:"limit"`
	Percentage  float64 `json:"percentage"`
	Status      string  `json:"status"`
	Description string  `json:"description,omitempty"`
}

// PollutantProvider fetches the current pollutant breakdown for a city.
type PollutantProvider interface {
	Pollutants(ctx context.Context, city string) ([]Pollutant, error)
}

// HealthAdvice is the backend's health guidance for a city at its current
// AQI level.
type HealthAdvice struct {
	City            string              `json:"city"`
	AQI             int                 `json:"aqi"`
	Category        string              `json:"category"`
	Recommendations map[string][]string `json:"recommendations"`
}

// HealthProvider fetches health recommendations. 404/503 from the backend
// surface as ErrNoData, a valid empty state.
type HealthProvider interface {
	HealthAdvice(ctx context.Context, city string) (HealthAdvice, error)
}

// Place is one geocoding suggestion for a search query.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Geocoder resolves free-text place searches to coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]Place, error)
}

// Alert is a threshold breach handed to notification sinks.
type Alert struct {
	Subscription AlertSubscription `json:"subscription"`
	Reading      AQIReading        `json:"reading"`
	Message      string            `json:"message"`
}

// Notifier dispatches an alert. Delivery is fire-and-forget: the monitor
// logs a returned error and moves on, it never retries or blocks on it.
type Notifier interface {
	SendAlert(ctx context.Context, alert Alert) error
}
