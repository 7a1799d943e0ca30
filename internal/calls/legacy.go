package calls

import "unicode/utf8"

// legacyIDMaxLen is the longest call id older clients produced. Their ended
// events carry such an id while the started event of the same call is keyed
// by a newer id and records the old one as its secondary id.
const legacyIDMaxLen = 13

// isLegacy reports whether the row under key holds only the end of a call
// reported under an old id. Rows that already have a start are ordinary
// calls, whatever the length of their id.
func isLegacy(key string, r *row) bool {
	return utf8.RuneCountInString(key) <= legacyIDMaxLen && !r.start.set
}

// reconcileLegacyIDs copies the end of every legacy-keyed row onto the rows
// whose secondary id names it, then drops the legacy row whether or not it
// matched. It returns the number of rows dropped.
func reconcileLegacyIDs(t *table) int {
	var legacy []string
	for _, k := range t.keys {
		if isLegacy(k, t.rows[k]) {
			legacy = append(legacy, k)
		}
	}

	for _, key := range legacy {
		old := t.rows[key]
		for _, k := range t.keys {
			target := t.rows[k]
			if k == key || !target.id.set || target.id.val != key {
				continue
			}
			target.end = old.end
			target.duration = old.duration
			target.terminator = old.terminator
		}
		t.drop(key)
	}
	return len(legacy)
}
