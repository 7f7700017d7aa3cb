package domain

// Category is one severity band of the AQI scale.
type Category struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// breakpoint is one row of the AQI table: readings up to and including Max
// fall into Category. The final row has no upper bound.
type breakpoint struct {
	Max      int
	Category Category
}

// breakpoints is the single authoritative AQI table. Ordered by increasing
// Max; end-inclusive on the upper bound of each band.
var breakpoints = []breakpoint{
	{50, Category{Label: "Good", Color: "green"}},
	{100, Category{Label: "Moderate", Color: "yellow"}},
	{150, Category{Label: "Unhealthy for Sensitive Groups", Color: "orange"}},
	{200, Category{Label: "Unhealthy", Color: "red"}},
	{300, Category{Label: "Very Unhealthy", Color: "purple"}},
}

// hazardous is the open-ended top band for readings above 300.
var hazardous = Category{Label: "Hazardous", Color: "maroon"}

// Classify maps an AQI value to its severity category. Total over
// non-negative input; every integer maps to exactly one band. Callers must
// reject negative values at their own boundary (see NewReading); Classify
// treats anything below the first band as Good rather than guessing.
func Classify(aqi int) Category {
	for _, bp := range breakpoints {
		if aqi <= bp.Max {
			return bp.Category
		}
	}
	return hazardous
}

// Categories returns the full scale in band order, for legends and alert
// templates.
func Categories() []Category {
	out := make([]Category, 0, len(breakpoints)+1)
	for _, bp := range breakpoints {
		out = append(out, bp.Category)
	}
	return append(out, hazardous)
}
