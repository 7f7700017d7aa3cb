package domain

// Shared placeholder datasets, shown when an upstream is unavailable. One
// definition for every widget; responses built from these must be labeled
// with SampleSource so the UI can say "sample data" instead of passing them
// off as live.

// SampleSource tags data that came from the placeholder provider.
const SampleSource = "sample"

// SampleForecast returns the placeholder four-day series.
func SampleForecast() []ForecastPoint {
	days := []struct {
		label string
		aqi   int
	}{
		{"Today", 68},
		{"Tomorrow", 85},
		{"Wednesday", 45},
		{"Thursday", 52},
	}
	out := make([]ForecastPoint, len(days))
	for i, d := range days {
		cat := Classify(d.aqi)
		out[i] = ForecastPoint{Label: d.label, AQI: d.aqi, Category: cat.Label, Color: cat.Color}
	}
	return out
}

// SamplePollutants returns the placeholder pollutant breakdown.
func SamplePollutants() []Pollutant {
	rows := []Pollutant{
		{Name: "PM2.5", Value: 35.2, Unit: "µg/m³", Limit: 35, Description: "Fine particles that can penetrate deep into lungs"},
		{Name: "PM10", Value: 52.8, Unit: "µg/m³", Limit: 150, Description: "Coarse particles from dust and pollen"},
		{Name: "O₃", Value: 68.5, Unit: "ppb", Limit: 100, Description: "Ground-level ozone, respiratory irritant"},
		{Name: "NO₂", Value: 42.3, Unit: "ppb", Limit: 100, Description: "Nitrogen dioxide from vehicle emissions"},
		{Name: "SO₂", Value: 18.7, Unit: "ppb", Limit: 75, Description: "Sulfur dioxide from industrial sources"},
		{Name: "CO", Value: 2.1, Unit: "ppm", Limit: 9, Description: "Carbon monoxide from incomplete combustion"},
	}
	for i := range rows {
		rows[i].Percentage = rows[i].Value / rows[i].Limit * 100
		if rows[i].Percentage > 70 {
			rows[i].Status = "high"
		} else {
			rows[i].Status = "ok"
		}
	}
	return rows
}
