package calls

import "time"

// splitAtMidnight cuts a call whose start and end fall on different local
// dates into a "_1" part ending the start day and a "_2" part opening the end
// day. ok is false when c needs no split or a boundary wall clock cannot be
// placed in loc; c is then kept as is.
func splitAtMidnight(c Call, loc *time.Location) (parts [2]Call, ok bool) {
	start, end := c.StartTime.In(loc), c.EndTime.In(loc)
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy == ey && sm == em && sd == ed {
		return parts, false
	}

	lastSecond, ok1 := localTime(sy, sm, sd, 23, 59, 59, loc)
	midnight, ok2 := localTime(ey, em, ed, 0, 0, 0, loc)
	if !ok1 || !ok2 {
		return parts, false
	}

	parts[0] = Call{
		CallID:    c.CallID + "_1",
		ID:        c.ID,
		StartTime: start,
		EndTime:   lastSecond,
		// Elapsed time up to the day boundary, one second past 23:59:59.
		Duration: lastSecond.Sub(start).Seconds() + 1,
		Weekday:  mondayIndex(start),
		Caller:   c.Caller,
	}
	parts[1] = Call{
		CallID:     c.CallID + "_2",
		ID:         c.ID,
		StartTime:  midnight,
		EndTime:    end,
		Duration:   end.Sub(midnight).Seconds(),
		Weekday:    mondayIndex(midnight),
		Terminator: c.Terminator,
	}
	return parts, true
}
