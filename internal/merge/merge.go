package merge

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dvidovic/lokator/internal/dateutil"
	"github.com/dvidovic/lokator/internal/record"
)

// Merge combines an existing ledger with newly submitted rows and returns
// the full replacement ledger.
//
// Conflict resolution is last-write-wins per identity key: the surviving
// row is the one with the greatest parseable updated_at; missing or
// unparseable timestamps are treated as earliest. On an exact tie the row
// appearing later in the concatenation (existing first, incoming after)
// wins — deliberately, so a resubmission without a timestamp change still
// supersedes. Week/Month/Year are recomputed from date_iso for every
// survivor, and the output is sorted newest date first, person name
// ascending, rows without a parseable date last.
func Merge(existing, incoming []record.Record) []record.Record {
	all := make([]record.Record, 0, len(existing)+len(incoming))
	all = append(all, existing...)
	all = append(all, incoming...)

	type slot struct {
		rec record.Record
		ts  time.Time
	}
	best := make(map[string]slot, len(all))
	for i, r := range all {
		key := r.IdentityKey()
		if r.Indeterminate() {
			// A missing name or date must never cause two unrelated rows
			// to collapse into one.
			key = fmt.Sprintf("\x00indeterminate\x00%d", i)
		}
		ts, _ := r.UpdatedTime()
		cur, ok := best[key]
		if !ok || !ts.Before(cur.ts) {
			best[key] = slot{rec: r, ts: ts}
		}
	}

	out := make([]record.Record, 0, len(best))
	for _, s := range best {
		out = append(out, renormalize(s.rec))
	}
	Sort(out)
	return out
}

// renormalize recomputes the denormalized calendar fields from date_iso.
// Input values for Week/Month/Year are never trusted.
func renormalize(r record.Record) record.Record {
	d := r.Date()
	if d.IsZero() {
		return r
	}
	r.Week = d.ISOWeek()
	r.Month = int(d.Month)
	r.Year = d.Year
	if r.Dan == "" {
		r.Dan = dateutil.WeekdayNameHR(d.Weekday())
	}
	if r.Datum == "" {
		r.Datum = d.Display()
	}
	return r
}

// Sort orders a ledger in place: calendar date descending, person name
// ascending as tie-break, rows with no parseable date last (themselves
// ordered by name for determinism).
func Sort(ledger []record.Record) {
	sort.SliceStable(ledger, func(i, j int) bool {
		di, dj := ledger[i].Date(), ledger[j].Date()
		switch {
		case di.IsZero() && dj.IsZero():
			return nameLess(ledger[i], ledger[j])
		case di.IsZero():
			return false
		case dj.IsZero():
			return true
		}
		if c := di.Compare(dj); c != 0 {
			return c > 0
		}
		return nameLess(ledger[i], ledger[j])
	})
}

func nameLess(a, b record.Record) bool {
	an, bn := strings.TrimSpace(a.PersonName), strings.TrimSpace(b.PersonName)
	if an != bn {
		return an < bn
	}
	if a.IdentityKey() != b.IdentityKey() {
		return a.IdentityKey() < b.IdentityKey()
	}
	// Indeterminate survivors can share a key; fall back to content so the
	// output order is stable regardless of map iteration.
	if a.RecordID != b.RecordID {
		return a.RecordID < b.RecordID
	}
	return a.Location < b.Location
}

// TrimCleared drops rows whose location is empty. Pruning cleared entries
// is a persistence policy layered on top of the merge, not part of the
// merge contract: cleared rows still participate in identity resolution.
func TrimCleared(ledger []record.Record) []record.Record {
	out := make([]record.Record, 0, len(ledger))
	for _, r := range ledger {
		if r.Cleared() {
			continue
		}
		out = append(out, r)
	}
	return out
}
