package calls

import "time"

// optional is a table cell that may be missing.
type optional[T any] struct {
	val T
	set bool
}

func some[T any](v T) optional[T] { return optional[T]{val: v, set: true} }

// or keeps o when present and falls back to other.
func (o optional[T]) or(other optional[T]) optional[T] {
	if o.set {
		return o
	}
	return other
}

// columns is the number of data columns counted by the missing-value check.
const columns = 7

type row struct {
	id         optional[string]
	start      optional[time.Time]
	end        optional[time.Time]
	duration   optional[float64]
	weekday    optional[int]
	caller     optional[string]
	terminator optional[string]
}

// coalesce fills r's missing cells from in. Present cells are never replaced.
func (r *row) coalesce(in row) {
	r.id = r.id.or(in.id)
	r.start = r.start.or(in.start)
	r.end = r.end.or(in.end)
	r.duration = r.duration.or(in.duration)
	r.weekday = r.weekday.or(in.weekday)
	r.caller = r.caller.or(in.caller)
	r.terminator = r.terminator.or(in.terminator)
}

func (r row) missing() int {
	n := 0
	for _, set := range []bool{
		r.id.set, r.start.set, r.end.set, r.duration.set,
		r.weekday.set, r.caller.set, r.terminator.set,
	} {
		if !set {
			n++
		}
	}
	return n
}

// table is the in-progress call table keyed by call id. keys keeps first
// insertion order so iteration is deterministic.
type table struct {
	rows map[string]*row
	keys []string
}

func newTable() *table {
	return &table{rows: make(map[string]*row)}
}

func (t *table) merge(key string, in row) {
	if r, ok := t.rows[key]; ok {
		r.coalesce(in)
		return
	}
	r := in
	t.rows[key] = &r
	t.keys = append(t.keys, key)
}

func (t *table) drop(key string) {
	if _, ok := t.rows[key]; !ok {
		return
	}
	delete(t.rows, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

func (t *table) size() int { return len(t.keys) }

// missingCells counts missing cells over all rows and data columns.
func (t *table) missingCells() int {
	n := 0
	for _, k := range t.keys {
		n += t.rows[k].missing()
	}
	return n
}

// tooSparse reports whether more than a tenth of all cells are missing.
func (t *table) tooSparse() bool {
	return float64(t.missingCells()) > 0.1*float64(t.size()*columns)
}

// dropIncomplete removes rows without both a start and an end.
func (t *table) dropIncomplete() int {
	var incomplete []string
	for _, k := range t.keys {
		r := t.rows[k]
		if !r.start.set || !r.end.set {
			incomplete = append(incomplete, k)
		}
	}
	for _, k := range incomplete {
		t.drop(k)
	}
	return len(incomplete)
}
