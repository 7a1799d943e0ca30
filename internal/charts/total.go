package charts

import "github.com/MikeSquared-Agency/waddle/internal/calls"

const (
	daysThreshold = 100 // hours
	shrekHours    = 1.5
)

// Equivalent restates a total in a more striking unit.
type Equivalent struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type TotalChart struct {
	Title      string      `json:"title"`
	Seconds    float64     `json:"seconds"`
	Value      float64     `json:"value"`
	Unit       Unit        `json:"unit"`
	Equivalent *Equivalent `json:"equivalent,omitempty"`
}

// Total sums every call. Totals in hours also get an equivalent in days
// above 100 hours and in films below.
func Total(cs []calls.Call) TotalChart {
	var seconds float64
	for _, c := range cs {
		seconds += c.Duration
	}
	unit, div := scale(seconds)
	value := seconds / div

	chart := TotalChart{
		Title:   "Your total call time was",
		Seconds: seconds,
		Value:   round2(value),
		Unit:    unit,
	}
	if unit == Hours {
		switch {
		case value > daysThreshold:
			chart.Equivalent = &Equivalent{Value: round2(value / 24), Unit: "days"}
		case value < daysThreshold:
			chart.Equivalent = &Equivalent{Value: round2(value / shrekHours), Unit: "Shreks"}
		}
	}
	return chart
}
