package calls

import (
	"errors"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/waddle/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reconstruct(t *testing.T, loc *time.Location, msgs ...export.Value) (*Result, error) {
	t.Helper()
	r := NewReconstructor(loc, discardLogger())
	return r.Reconstruct(export.Conversation{ID: "8:bob", Messages: msgs})
}

func TestReconstructPair(t *testing.T) {
	res, err := reconstruct(t, time.UTC,
		textMessage("100", "8:alice", "2023-05-01T09:59:00Z"),
		callMessage("1682935200000", "started", "call-id-0000000001", "8:alice", "2023-05-01T10:00:00.000Z", ""),
		callMessage("1682935500000", "ended", "call-id-0000000001", "8:bob", "2023-05-01T10:05:00.000Z", "300"),
	)
	require.NoError(t, err)
	require.Len(t, res.Calls, 1)

	c := res.Calls[0]
	assert.Equal(t, "call-id-0000000001", c.CallID)
	assert.Equal(t, "1682935200000", c.ID)
	assert.Equal(t, time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC), c.StartTime)
	assert.Equal(t, time.Date(2023, 5, 1, 10, 5, 0, 0, time.UTC), c.EndTime)
	assert.Equal(t, 300.0, c.Duration)
	assert.Equal(t, 0, c.Weekday)
	assert.Equal(t, "8:alice", c.Caller)
	assert.Equal(t, "8:bob", c.Terminator)

	assert.Equal(t, 3, res.Stats.Messages)
	assert.Equal(t, 2, res.Stats.Events)
}

func TestReconstructOrderIndependent(t *testing.T) {
	started := callMessage("s", "started", "call-id-0000000001", "8:alice", "2023-05-01T10:00:00Z", "")
	ended := callMessage("e", "ended", "call-id-0000000001", "8:bob", "2023-05-01T10:05:00Z", "300")

	forward, err := reconstruct(t, time.UTC, started, ended)
	require.NoError(t, err)
	backward, err := reconstruct(t, time.UTC, ended, started)
	require.NoError(t, err)

	require.Len(t, forward.Calls, 1)
	require.Len(t, backward.Calls, 1)
	f, b := forward.Calls[0], backward.Calls[0]
	assert.Equal(t, f.StartTime, b.StartTime)
	assert.Equal(t, f.EndTime, b.EndTime)
	assert.Equal(t, f.Duration, b.Duration)
	assert.Equal(t, f.Caller, b.Caller)
	assert.Equal(t, f.Terminator, b.Terminator)
}

func TestReconstructDeterministic(t *testing.T) {
	var msgs []export.Value
	for i := 0; i < 10; i++ {
		msgs = append(msgs, completeCall(i)...)
	}
	first, err := reconstruct(t, time.UTC, msgs...)
	require.NoError(t, err)
	second, err := reconstruct(t, time.UTC, msgs...)
	require.NoError(t, err)
	assert.Equal(t, first.Calls, second.Calls)

	for i := 1; i < len(first.Calls); i++ {
		assert.False(t, first.Calls[i].StartTime.Before(first.Calls[i-1].StartTime), "table sorted by start")
	}
}

func TestReconstructMidnightScenario(t *testing.T) {
	res, err := reconstruct(t, time.UTC,
		callMessage("m1", "started", "c1", "alice", "2023-05-01T23:50:00Z", ""),
		callMessage("m2", "ended", "c1", "bob", "2023-05-02T00:10:00Z", "1200"),
	)
	require.NoError(t, err)
	require.Len(t, res.Calls, 2)

	first, second := res.Calls[0], res.Calls[1]
	assert.Equal(t, "c1_1", first.CallID)
	assert.Equal(t, 600.0, first.Duration)
	assert.Equal(t, "alice", first.Caller)
	assert.Empty(t, first.Terminator)
	assert.Equal(t, time.Date(2023, 5, 1, 23, 59, 59, 0, time.UTC), first.EndTime)
	assert.Equal(t, 0, first.Weekday)

	assert.Equal(t, "c1_2", second.CallID)
	assert.Equal(t, 600.0, second.Duration)
	assert.Equal(t, "bob", second.Terminator)
	assert.Empty(t, second.Caller)
	assert.Equal(t, time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC), second.StartTime)
	assert.Equal(t, 1, second.Weekday)

	assert.Equal(t, 1, res.Stats.Split)
}

func TestReconstructMidnightInZone(t *testing.T) {
	berlin := mustLocation(t, "Europe/Berlin")

	// 23:00 to 01:00 Berlin summer time.
	res, err := reconstruct(t, berlin,
		callMessage("m1", "started", "call-id-0000000002", "8:alice", "2023-07-01T21:00:00Z", ""),
		callMessage("m2", "ended", "call-id-0000000002", "8:bob", "2023-07-01T23:00:00Z", "7200"),
	)
	require.NoError(t, err)
	require.Len(t, res.Calls, 2)

	assert.Equal(t, "call-id-0000000002_1", res.Calls[0].CallID)
	assert.Equal(t, "call-id-0000000002_2", res.Calls[1].CallID)
	assert.InDelta(t, 7200, res.Calls[0].Duration+res.Calls[1].Duration, 1)
	assert.Equal(t, 3600.0, res.Calls[1].Duration)
	assert.Equal(t, 5, res.Calls[0].Weekday) // Saturday
	assert.Equal(t, 6, res.Calls[1].Weekday) // Sunday
	// Both halves point back at the message that started the call.
	assert.Equal(t, "m1", res.Calls[0].ID)
	assert.Equal(t, "m1", res.Calls[1].ID)
}

func TestReconstructMidnightSkippedByDST(t *testing.T) {
	santiago := mustLocation(t, "America/Santiago")

	// Clocks jump from 2023-09-03 00:00 to 01:00, so the day boundary has
	// no wall clock and the call stays whole.
	res, err := reconstruct(t, santiago,
		callMessage("m1", "started", "call-santiago-0001", "8:alice", "2023-09-03T03:50:00Z", ""),
		callMessage("m2", "ended", "call-santiago-0001", "8:bob", "2023-09-03T04:10:00Z", "1200"),
	)
	require.NoError(t, err)
	require.Len(t, res.Calls, 1)

	c := res.Calls[0]
	assert.Equal(t, "call-santiago-0001", c.CallID)
	assert.Equal(t, 1200.0, c.Duration)
	assert.Equal(t, 2, c.StartTime.Day())
	assert.Equal(t, 3, c.EndTime.Day())
	assert.Equal(t, "8:alice", c.Caller)
	assert.Equal(t, "8:bob", c.Terminator)
	assert.Equal(t, 0, res.Stats.Split)
	assert.Equal(t, 1, res.Stats.Unsplittable)
}

func TestReconstructLegacyID(t *testing.T) {
	var msgs []export.Value
	for i := 0; i < 8; i++ {
		msgs = append(msgs, completeCall(i)...)
	}
	msgs = append(msgs,
		callMessage("1683000000000", "started", "call-id-0000000099", "8:alice", "2023-05-02T10:00:00Z", ""),
		callMessage("1683000300000", "ended", "1683000000000", "8:bob", "2023-05-02T10:05:00Z", "300"),
	)

	res, err := reconstruct(t, time.UTC, msgs...)
	require.NoError(t, err)
	require.Len(t, res.Calls, 9)

	var got *Call
	for i := range res.Calls {
		assert.NotEqual(t, "1683000000000", res.Calls[i].CallID, "legacy row dropped")
		if res.Calls[i].CallID == "call-id-0000000099" {
			got = &res.Calls[i]
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2023, 5, 2, 10, 5, 0, 0, time.UTC), got.EndTime)
	assert.Equal(t, 300.0, got.Duration)
	assert.Equal(t, "8:bob", got.Terminator)
	assert.Equal(t, 1, res.Stats.Legacy)
}

func TestReconstructTooManyMissing(t *testing.T) {
	res, err := reconstruct(t, time.UTC,
		callMessage("m1", "started", "call-id-0000000001", "8:alice", "2023-05-01T10:00:00Z", ""),
		callMessage("m2", "started", "call-id-0000000002", "8:alice", "2023-05-01T11:00:00Z", ""),
		callMessage("m3", "ended", "call-id-0000000002", "8:bob", "2023-05-01T11:05:00Z", "300"),
	)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrTooManyMissing)

	var rerr *ReconstructError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "8:bob", rerr.Conversation)
}

func TestReconstructNoCalls(t *testing.T) {
	tests := []struct {
		name string
		msgs []export.Value
	}{
		{"no messages", nil},
		{"only text", []export.Value{textMessage("1", "8:alice", "2023-05-01T10:00:00Z")}},
		{"only missed", []export.Value{callMessage("1", "missed", "call-id-0000000001", "8:alice", "2023-05-01T10:00:00Z", "")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := reconstruct(t, time.UTC, tt.msgs...)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrNoCalls)
		})
	}
}

func TestReconstructMalformedIsFatal(t *testing.T) {
	broken := export.Object(kv("messagetype", "Event/Call"), kv("content", "<partlist></partlist>"))
	var msgs []export.Value
	msgs = append(msgs, completeCall(1)...)
	msgs = append(msgs, broken)

	res, err := reconstruct(t, time.UTC, msgs...)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrMalformedEvent)
	assert.Contains(t, err.Error(), "could not build call history")
}

func TestReconstructSkipsAmbiguous(t *testing.T) {
	berlin := mustLocation(t, "Europe/Berlin")
	var msgs []export.Value
	for i := 0; i < 10; i++ {
		msgs = append(msgs, completeCall(i)...)
	}
	msgs = append(msgs, callMessage("x", "started", "call-id-0000000042", "8:alice", "2023-10-29T00:30:00Z", ""))

	res, err := reconstruct(t, berlin, msgs...)
	require.NoError(t, err)
	assert.Len(t, res.Calls, 10)
	assert.Equal(t, 1, res.Stats.Ambiguous)
}

func TestReconstructProgress(t *testing.T) {
	msgs := completeCall(3)
	msgs = append(msgs, textMessage("t", "8:alice", "2023-05-01T10:00:00Z"))

	var seen [][2]int
	r := NewReconstructor(time.UTC, discardLogger()).WithProgress(func(done, total int) {
		seen = append(seen, [2]int{done, total})
	})
	_, err := r.Reconstruct(export.Conversation{ID: "8:bob", Messages: msgs})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, seen)
}

func TestReconcileLegacyIDsWithoutMatch(t *testing.T) {
	tbl := newTable()
	tbl.merge("1683000000000", row{id: some("other"), end: some(time.Now()), terminator: some("8:bob")})
	tbl.merge("call-id-0000000001", row{id: some("1682000000000"), start: some(time.Now())})

	assert.Equal(t, 1, reconcileLegacyIDs(tbl))
	assert.Equal(t, []string{"call-id-0000000001"}, tbl.keys)
	assert.False(t, tbl.rows["call-id-0000000001"].end.set)
}

func TestReconcileKeepsShortCompleteRows(t *testing.T) {
	tbl := newTable()
	tbl.merge("c1", row{id: some("m1"), start: some(time.Now()), end: some(time.Now())})
	assert.Equal(t, 0, reconcileLegacyIDs(tbl))
	assert.Equal(t, []string{"c1"}, tbl.keys)
}

func TestRowCoalesceKeepsExisting(t *testing.T) {
	r := row{id: some("first"), caller: some("8:alice")}
	r.coalesce(row{id: some("second"), caller: some("8:bob"), terminator: some("8:bob")})
	assert.Equal(t, "first", r.id.val)
	assert.Equal(t, "8:alice", r.caller.val)
	assert.Equal(t, "8:bob", r.terminator.val)
	assert.Equal(t, 4, r.missing())
}

func TestSplitAtMidnightSameDay(t *testing.T) {
	c := Call{
		CallID:    "call-id-0000000001",
		StartTime: time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2023, 5, 1, 11, 0, 0, 0, time.UTC),
	}
	_, ok := splitAtMidnight(c, time.UTC)
	assert.False(t, ok)
}
