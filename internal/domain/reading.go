package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoData marks the valid-empty-state outcomes in the upstream error
// taxonomy: a provider responded but has nothing usable (WAQI non-"ok"
// status, forecast backend 503, recommendations 404). Callers degrade to a
// placeholder instead of surfacing an error banner.
var ErrNoData = errors.New("no data available")

// AQIReading is a classified ground-truth observation. Category and Color
// are derived from Value, never stored independently.
type AQIReading struct {
	Value     int       `json:"value"`
	Category  string    `json:"category"`
	Color     string    `json:"color"`
	City      string    `json:"city,omitempty"`
	Lat       float64   `json:"lat,omitempty"`
	Lon       float64   `json:"lon,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReading classifies a raw AQI value. Negative input is a contract
// violation by the upstream decoder, not a sixth band.
func NewReading(value int, city string) (AQIReading, error) {
	if value < 0 {
		return AQIReading{}, fmt.Errorf("aqi value %d is negative", value)
	}
	cat := Classify(value)
	return AQIReading{
		Value:     value,
		Category:  cat.Label,
		Color:     cat.Color,
		City:      city,
		Timestamp: clock.Now().UTC(),
	}, nil
}
