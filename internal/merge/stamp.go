// Package merge implements the tracker reconciliation engine: stamping
// submitted rows with canonical identity and bookkeeping metadata, then
// merging them into a deduplicated, chronologically ordered ledger with
// last-write-wins conflict resolution.
package merge

import (
	"time"

	"github.com/dvidovic/lokator/internal/dateutil"
	"github.com/dvidovic/lokator/internal/record"
)

// Stamper assigns identity and bookkeeping metadata to normalized rows.
//
// Now is injectable so stamping is deterministic under test; nil defaults
// to the wall clock.
type Stamper struct {
	Now func() time.Time
}

func (s Stamper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Stamp derives date_iso, record_id and the bookkeeping fields for each
// row. Fields already present are never overwritten, which makes Stamp
// idempotent: re-stamping an already-stamped row changes nothing.
//
// Rows whose person or date cannot be determined are still produced with
// empty identity components; the merge engine treats those as distinct,
// non-colliding entries.
func (s Stamper) Stamp(rows []record.Record, source string) []record.Record {
	now := record.FormatTimestamp(s.now())
	out := make([]record.Record, len(rows))
	for i, r := range rows {
		if r.DateISO == "" {
			if d, ok := dateutil.Parse(r.Datum); ok {
				r.DateISO = d.ISO()
			}
		}
		if r.Datum == "" && r.DateISO != "" {
			r.Datum = r.Date().Display()
		}
		if r.Dan == "" && r.DateISO != "" {
			r.Dan = dateutil.WeekdayNameHR(r.Date().Weekday())
		}
		if r.RecordID == "" {
			r.RecordID = record.NewID(r.Owner(), r.DateISO)
		}
		if r.CreatedAt == "" {
			r.CreatedAt = now
		}
		if r.UpdatedAt == "" {
			r.UpdatedAt = now
		}
		if r.Version == 0 {
			r.Version = 1
		}
		if r.Source == "" {
			r.Source = source
		}
		out[i] = r
	}
	return out
}
