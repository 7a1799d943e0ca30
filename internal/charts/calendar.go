package charts

import (
	"time"

	"github.com/MikeSquared-Agency/waddle/internal/calls"
)

const dateLayout = "2006-01-02"

type CalendarDay struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

type CalendarChart struct {
	Title string        `json:"title"`
	Days  []CalendarDay `json:"days"`
}

// Calendar lists call hours for every date between the first and the last
// call start, days without calls included.
func Calendar(cs []calls.Call) CalendarChart {
	chart := CalendarChart{Title: "Call Duration in Hours"}
	if len(cs) == 0 {
		return chart
	}

	perDay := make(map[string]float64)
	var first, last time.Time
	for i, c := range cs {
		day := civilDate(c.StartTime)
		perDay[day.Format(dateLayout)] += c.Duration
		if i == 0 || day.Before(first) {
			first = day
		}
		if i == 0 || day.After(last) {
			last = day
		}
	}

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		chart.Days = append(chart.Days, CalendarDay{Date: key, Hours: perDay[key] / 3600})
	}
	return chart
}

// civilDate drops the clock and zone so date arithmetic ignores DST.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
