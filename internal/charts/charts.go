// Package charts turns a call table into chart-ready data. Nothing here draws;
// the render package and API clients present the results.
package charts

import (
	"math"
	"time"

	"github.com/MikeSquared-Agency/waddle/internal/calls"
	"github.com/MikeSquared-Agency/waddle/internal/export"
)

// Unit is the display unit of a duration chart.
type Unit string

const (
	Minutes Unit = "minutes"
	Hours   Unit = "hours"
)

// Summary bundles every chart of one call table.
type Summary struct {
	Calls       int           `json:"calls"`
	FirstCall   time.Time     `json:"first_call"`
	LastCall    time.Time     `json:"last_call"`
	Weekdays    WeekdayChart  `json:"weekdays"`
	Calendar    CalendarChart `json:"calendar"`
	Total       TotalChart    `json:"total"`
	Callers     TendencyChart `json:"callers"`
	Terminators TendencyChart `json:"terminators"`
}

// Summarize builds all charts. ref is the selected partner and may be nil.
func Summarize(cs []calls.Call, ref *export.Partner) Summary {
	s := Summary{
		Calls:       len(cs),
		Weekdays:    Weekdays(cs),
		Calendar:    Calendar(cs),
		Total:       Total(cs),
		Callers:     Callers(cs, ref),
		Terminators: Terminators(cs, ref),
	}
	for i, c := range cs {
		if i == 0 || c.StartTime.Before(s.FirstCall) {
			s.FirstCall = c.StartTime
		}
		if i == 0 || c.StartTime.After(s.LastCall) {
			s.LastCall = c.StartTime
		}
	}
	return s
}

// scale picks hours for totals above one hour, minutes otherwise.
func scale(seconds float64) (Unit, float64) {
	if seconds > 3600 {
		return Hours, 3600
	}
	return Minutes, 60
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
