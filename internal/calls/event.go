package calls

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/MikeSquared-Agency/waddle/internal/export"
)

// Category is the kind of call boundary an event marks.
type Category string

const (
	Started Category = "started"
	Ended   Category = "ended"
)

const callMessageType = "Event/Call"

var (
	callIDPattern   = regexp.MustCompile(`callId="(\S+)"`)
	typePattern     = regexp.MustCompile(`type="(\S+)"`)
	durationPattern = regexp.MustCompile(`<duration>([0-9.]+)</duration>`)
)

// Event is one parsed call boundary.
type Event struct {
	CallID      string
	SecondaryID string
	Category    Category
	Timestamp   time.Time
	Actor       string
	Duration    float64 // seconds, ended events only
}

// IsCallEvent reports whether msg is a call event message.
func IsCallEvent(msg export.Value) bool {
	vals := msg.Extract("messagetype")
	if len(vals) != 1 {
		return false
	}
	s, ok := vals[0].Str()
	return ok && s == callMessageType
}

// ParseEvent reads the boundary carried by a call event message. Arrival
// times are converted to loc.
func ParseEvent(msg export.Value, loc *time.Location) (Event, error) {
	content, err := field(msg, "content")
	if err != nil {
		return Event{}, err
	}

	m := callIDPattern.FindStringSubmatch(content)
	if m == nil {
		return Event{}, fmt.Errorf("%w: no callId in content", ErrMalformedEvent)
	}
	ev := Event{CallID: m[1]}

	m = typePattern.FindStringSubmatch(content)
	if m == nil {
		return Event{}, fmt.Errorf("%w: no type in content of call %s", ErrMalformedEvent, ev.CallID)
	}
	ev.Category = Category(m[1])
	if ev.Category != Started && ev.Category != Ended {
		return Event{}, fmt.Errorf("%w: %s", ErrNotBoundary, m[1])
	}

	if ev.Actor, err = field(msg, "from"); err != nil {
		return Event{}, err
	}
	if ev.SecondaryID, err = field(msg, "id"); err != nil {
		return Event{}, err
	}
	arrival, err := field(msg, "originalarrivaltime")
	if err != nil {
		return Event{}, err
	}
	if ev.Timestamp, err = ParseArrival(arrival, loc); err != nil {
		return Event{}, err
	}

	if ev.Category == Ended {
		if m := durationPattern.FindStringSubmatch(content); m != nil {
			d, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return Event{}, fmt.Errorf("%w: duration %q of call %s", ErrMalformedEvent, m[1], ev.CallID)
			}
			ev.Duration = d
		}
	}
	return ev, nil
}

// field returns the first scalar stored under key.
func field(msg export.Value, key string) (string, error) {
	vals := msg.Extract(key)
	if len(vals) == 0 {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedEvent, key)
	}
	s, ok := vals[0].Text()
	if !ok {
		return "", fmt.Errorf("%w: %s is not text", ErrMalformedEvent, key)
	}
	return s, nil
}

// row converts the event into the partial table row it contributes.
func (e Event) row() row {
	r := row{id: some(e.SecondaryID)}
	switch e.Category {
	case Started:
		r.start = some(e.Timestamp)
		r.weekday = some(mondayIndex(e.Timestamp))
		r.caller = some(e.Actor)
	case Ended:
		r.end = some(e.Timestamp)
		r.duration = some(e.Duration)
		r.terminator = some(e.Actor)
	}
	return r
}
