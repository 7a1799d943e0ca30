package calls

import (
	"sort"
	"time"
)

// Call is one row of the reconstructed call table.
type Call struct {
	CallID     string    `json:"call_id"`
	ID         string    `json:"id,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Duration   float64   `json:"duration"`
	Weekday    int       `json:"weekday"`
	Caller     string    `json:"caller,omitempty"`
	Terminator string    `json:"terminator,omitempty"`
}

// callsFrom flattens complete rows into Calls.
func callsFrom(t *table) []Call {
	out := make([]Call, 0, t.size())
	for _, k := range t.keys {
		r := t.rows[k]
		out = append(out, Call{
			CallID:     k,
			ID:         r.id.val,
			StartTime:  r.start.val,
			EndTime:    r.end.val,
			Duration:   r.duration.val,
			Weekday:    mondayIndex(r.start.val),
			Caller:     r.caller.val,
			Terminator: r.terminator.val,
		})
	}
	return out
}

// sortCalls orders by start time, then call id.
func sortCalls(cs []Call) {
	sort.SliceStable(cs, func(i, j int) bool {
		if !cs[i].StartTime.Equal(cs[j].StartTime) {
			return cs[i].StartTime.Before(cs[j].StartTime)
		}
		return cs[i].CallID < cs[j].CallID
	})
}
