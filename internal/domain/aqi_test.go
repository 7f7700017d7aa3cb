package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		aqi   int
		label string
		color string
	}{
		{0, "Good", "green"},
		{50, "Good", "green"},
		{51, "Moderate", "yellow"},
		{100, "Moderate", "yellow"},
		{101, "Unhealthy for Sensitive Groups", "orange"},
		{150, "Unhealthy for Sensitive Groups", "orange"},
		{151, "Unhealthy", "red"},
		{200, "Unhealthy", "red"},
		{201, "Very Unhealthy", "purple"},
		{300, "Very Unhealthy", "purple"},
		{301, "Hazardous", "maroon"},
		{999, "Hazardous", "maroon"},
	}
	for _, tc := range cases {
		cat := Classify(tc.aqi)
		assert.Equal(t, tc.label, cat.Label, "aqi=%d", tc.aqi)
		assert.Equal(t, tc.color, cat.Color, "aqi=%d", tc.aqi)
	}
}

func TestClassify_Total(t *testing.T) {
	// Every non-negative value lands in exactly one of the six bands.
	labels := make(map[string]struct{})
	for _, c := range Categories() {
		labels[c.Label] = struct{}{}
	}
	require.Len(t, labels, 6)

	for v := 0; v <= 600; v++ {
		_, known := labels[Classify(v).Label]
		require.True(t, known, "aqi=%d", v)
	}
}

func TestNewReading(t *testing.T) {
	t.Run("classifies value", func(t *testing.T) {
		r, err := NewReading(120, "Los Angeles")
		require.NoError(t, err)
		assert.Equal(t, 120, r.Value)
		assert.Equal(t, "Unhealthy for Sensitive Groups", r.Category)
		assert.Equal(t, "orange", r.Color)
		assert.Equal(t, "Los Angeles", r.City)
		assert.False(t, r.Timestamp.IsZero())
	})

	t.Run("rejects negative value", func(t *testing.T) {
		_, err := NewReading(-1, "Nowhere")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "negative")
	})
}
