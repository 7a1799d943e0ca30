package charts

import "github.com/MikeSquared-Agency/waddle/internal/calls"

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type WeekdayTotal struct {
	Day     string  `json:"day"`
	Seconds float64 `json:"seconds"`
	Value   float64 `json:"value"`
}

type WeekdayChart struct {
	Title    string          `json:"title"`
	Unit     Unit            `json:"unit"`
	Favorite string          `json:"favorite"`
	Days     [7]WeekdayTotal `json:"days"`
}

// Weekdays sums call time per weekday, Monday first. The favorite is the
// first day holding the maximum.
func Weekdays(cs []calls.Call) WeekdayChart {
	var chart WeekdayChart
	var total float64
	for i := range chart.Days {
		chart.Days[i].Day = weekdayNames[i]
	}
	for _, c := range cs {
		d := (int(c.StartTime.Weekday()) + 6) % 7
		chart.Days[d].Seconds += c.Duration
		total += c.Duration
	}

	unit, div := scale(total)
	chart.Unit = unit
	best := 0
	for i := range chart.Days {
		chart.Days[i].Value = chart.Days[i].Seconds / div
		if chart.Days[i].Seconds > chart.Days[best].Seconds {
			best = i
		}
	}
	chart.Favorite = weekdayNames[best]
	chart.Title = "Your favorite call day is " + chart.Favorite
	return chart
}
