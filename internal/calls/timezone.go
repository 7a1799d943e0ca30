package calls

import (
	"fmt"
	"time"
)

// arrivalLayout covers the leading "YYYY-MM-DDTHH:MM:SS" of an arrival
// timestamp; fractional seconds and zone suffix are ignored.
const arrivalLayout = "2006-01-02T15:04:05"

// LoadLocation resolves an IANA zone name. Empty or unknown names resolve to
// UTC and ok reports false for the unknown case.
func LoadLocation(name string) (loc *time.Location, ok bool) {
	if name == "" {
		return time.UTC, true
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}

// ParseArrival reads an arrival timestamp as UTC and converts it to loc.
// Instants whose local wall clock occurs twice in loc return ErrAmbiguousTime.
func ParseArrival(s string, loc *time.Location) (time.Time, error) {
	if len(s) < len(arrivalLayout) {
		return time.Time{}, fmt.Errorf("%w: arrival time %q too short", ErrMalformedEvent, s)
	}
	t, err := time.ParseInLocation(arrivalLayout, s[:len(arrivalLayout)], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: arrival time %q: %v", ErrMalformedEvent, s, err)
	}

	local := t.In(loc)
	if ambiguous(local) {
		return time.Time{}, fmt.Errorf("%w: %s in %s", ErrAmbiguousTime, local.Format(arrivalLayout), loc)
	}
	return local, nil
}

// ambiguous reports whether t's wall clock also names another instant in t's
// location, which happens inside a repeated hour after a DST fallback.
func ambiguous(t time.Time) bool {
	_, offset := t.Zone()
	for _, d := range []time.Duration{-24 * time.Hour, 24 * time.Hour} {
		_, other := t.Add(d).Zone()
		if other == offset {
			continue
		}
		twin := t.Add(time.Duration(offset-other) * time.Second)
		if twin.Format(arrivalLayout) == t.Format(arrivalLayout) {
			return true
		}
	}
	return false
}

// localTime builds a wall-clock time in loc. ok is false when that wall clock
// is skipped or repeated in loc.
func localTime(year int, month time.Month, day, hour, minute, sec int, loc *time.Location) (time.Time, bool) {
	want := time.Date(year, month, day, hour, minute, sec, 0, time.UTC)
	t := time.Date(year, month, day, hour, minute, sec, 0, loc)
	if t.Format(arrivalLayout) != want.Format(arrivalLayout) {
		return time.Time{}, false
	}
	if ambiguous(t) {
		return time.Time{}, false
	}
	return t, true
}

// mondayIndex numbers weekdays from Monday=0.
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
