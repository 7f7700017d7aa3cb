package domain

import "math"

// DefaultEpsilon is the anchor-vs-actual difference, in AQI units, below
// which calibration is skipped as visually insignificant jitter. One value
// everywhere; widgets must not carry their own.
const DefaultEpsilon = 2.0

// ForecastPoint is one day of a forecast series. Index 0 is today and serves
// as the calibration anchor; order is semantically meaningful.
type ForecastPoint struct {
	Label      string             `json:"label"`
	AQI        int                `json:"aqi"`
	Category   string             `json:"category"`
	Color      string             `json:"color"`
	Pollutants map[string]float64 `json:"pollutants,omitempty"`
}

// CalibrationOutcome reports what Calibrate did with a series, so callers
// can label uncalibrated data visibly instead of showing it silently.
type CalibrationOutcome string

const (
	CalibrationApplied    CalibrationOutcome = "applied"
	CalibrationEmpty      CalibrationOutcome = "empty_series"
	CalibrationSkipped    CalibrationOutcome = "within_epsilon"
	CalibrationZeroAnchor CalibrationOutcome = "zero_anchor"
)

// Calibrate anchors a forecast series to an authoritative current reading by
// proportional scaling. The input series is never mutated; the returned
// series is freshly allocated when scaling applies. Each scaled point is
// re-classified from the breakpoint table rather than copying the source
// category.
func Calibrate(series []ForecastPoint, actual int, epsilon float64) ([]ForecastPoint, CalibrationOutcome) {
	if len(series) == 0 {
		return series, CalibrationEmpty
	}
	anchor := series[0].AQI
	if anchor == 0 {
		// Division undefined; show the raw series flagged uncalibrated.
		return series, CalibrationZeroAnchor
	}
	if math.Abs(float64(anchor-actual)) < epsilon {
		return series, CalibrationSkipped
	}

	ratio := float64(actual) / float64(anchor)
	out := make([]ForecastPoint, len(series))
	for i, p := range series {
		scaled := int(math.Round(float64(p.AQI) * ratio))
		if scaled < 0 {
			scaled = 0
		}
		cat := Classify(scaled)
		out[i] = ForecastPoint{
			Label:      p.Label,
			AQI:        scaled,
			Category:   cat.Label,
			Color:      cat.Color,
			Pollutants: p.Pollutants,
		}
	}
	return out, CalibrationApplied
}
