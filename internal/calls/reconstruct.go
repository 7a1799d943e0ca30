package calls

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/waddle/internal/export"
)

// ProgressFunc is told how many of a conversation's messages have been read.
type ProgressFunc func(done, total int)

// Stats describes what a reconstruction read and discarded.
type Stats struct {
	Messages     int `json:"messages"`
	Events       int `json:"events"`
	NotBoundary  int `json:"not_boundary"`
	Ambiguous    int `json:"ambiguous"`
	Legacy       int `json:"legacy"`
	Incomplete   int `json:"incomplete"`
	Split        int `json:"split"`
	Unsplittable int `json:"unsplittable"`
}

// Result is a reconstructed call table.
type Result struct {
	Calls []Call `json:"calls"`
	Stats Stats  `json:"stats"`
}

// Reconstructor turns call event messages into a call table.
type Reconstructor struct {
	loc      *time.Location
	logger   *slog.Logger
	progress ProgressFunc
}

func NewReconstructor(loc *time.Location, logger *slog.Logger) *Reconstructor {
	if loc == nil {
		loc = time.UTC
	}
	return &Reconstructor{loc: loc, logger: logger}
}

// WithProgress sets a callback invoked after every message.
func (r *Reconstructor) WithProgress(fn ProgressFunc) *Reconstructor {
	r.progress = fn
	return r
}

// Reconstruct builds the call table of conv. Any failure is a
// *ReconstructError and no partial table is returned.
func (r *Reconstructor) Reconstruct(conv export.Conversation) (*Result, error) {
	res, err := r.reconstruct(conv.Messages)
	if err != nil {
		return nil, &ReconstructError{Conversation: conv.ID, Err: err}
	}
	r.logger.Debug("call table built",
		"conversation", conv.ID,
		"calls", len(res.Calls),
		"events", res.Stats.Events,
		"skipped_not_boundary", res.Stats.NotBoundary,
		"skipped_ambiguous", res.Stats.Ambiguous,
		"legacy_rows", res.Stats.Legacy,
		"incomplete_rows", res.Stats.Incomplete,
		"split", res.Stats.Split,
		"unsplittable", res.Stats.Unsplittable,
	)
	return res, nil
}

func (r *Reconstructor) reconstruct(messages []export.Value) (*Result, error) {
	var stats Stats
	stats.Messages = len(messages)

	t := newTable()
	for i, msg := range messages {
		if IsCallEvent(msg) {
			ev, err := ParseEvent(msg, r.loc)
			switch {
			case err == nil:
				stats.Events++
				t.merge(ev.CallID, ev.row())
			case errors.Is(err, ErrNotBoundary):
				stats.NotBoundary++
			case errors.Is(err, ErrAmbiguousTime):
				stats.Ambiguous++
				r.logger.Debug("skipping call event", "error", err)
			default:
				return nil, fmt.Errorf("%w (message %d)", err, i)
			}
		}
		if r.progress != nil {
			r.progress(i+1, len(messages))
		}
	}

	if t.tooSparse() {
		return nil, fmt.Errorf("%w: %d of %d cells", ErrTooManyMissing, t.missingCells(), t.size()*columns)
	}

	stats.Legacy = reconcileLegacyIDs(t)
	stats.Incomplete = t.dropIncomplete()

	var out []Call
	for _, c := range callsFrom(t) {
		parts, ok := splitAtMidnight(c, r.loc)
		if ok {
			stats.Split++
			out = append(out, parts[0], parts[1])
			continue
		}
		if !sameDate(c.StartTime, c.EndTime) {
			stats.Unsplittable++
		}
		out = append(out, c)
	}

	if len(out) == 0 {
		return nil, ErrNoCalls
	}
	sortCalls(out)
	return &Result{Calls: out, Stats: stats}, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
