// Package record defines the tracker ledger's canonical record type and its
// content-addressed identity.
package record

import (
	"strconv"
	"strings"
	"time"

	"github.com/dvidovic/lokator/internal/columns"
	"github.com/dvidovic/lokator/internal/dateutil"
)

// TimestampLayout is the bookkeeping timestamp format: UTC ISO-8601 with
// second precision and a literal Z suffix.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Record is one person's work-location assignment for one calendar date.
//
// Datum carries the original display text ("01.09.2025."), DateISO the
// parsed canonical date. Week/Month/Year are denormalized from DateISO and
// recomputed on every merge; they are never trusted from input. Extra holds
// columns outside the canonical schema, preserved verbatim for forward
// compatibility.
type Record struct {
	Datum      string
	Dan        string
	PersonName string
	Department string
	Location   string

	Week  int
	Month int
	Year  int

	DateISO    string
	RecordID   string
	EmployeeID string
	CreatedAt  string
	UpdatedAt  string
	Version    int
	Source     string

	LocationID   string
	LocationName string
	Note         string

	Extra map[string]string
}

// Owner returns the identity component for the person dimension. An
// explicit opaque employee id takes precedence over the display name; the
// name is only a fallback because it breaks under renames and typos.
func (r Record) Owner() string {
	if id := strings.TrimSpace(r.EmployeeID); id != "" {
		return id
	}
	return strings.TrimSpace(r.PersonName)
}

// IdentityKey returns the merge key: owner and calendar date joined by a
// pipe, matching the record_id preimage.
func (r Record) IdentityKey() string {
	return IdentityKey(r.Owner(), r.DateISO)
}

// Indeterminate reports whether the record lacks either identity
// component. Indeterminate records never collide with each other during a
// merge; each is treated as a distinct entry.
func (r Record) Indeterminate() bool {
	return r.Owner() == "" || r.DateISO == ""
}

// Date returns the parsed calendar date, or a zero Date when DateISO is
// empty or malformed.
func (r Record) Date() dateutil.Date {
	d, _ := dateutil.ParseISO(r.DateISO)
	return d
}

// UpdatedTime parses the updated_at timestamp. Missing or unparseable
// values report false and are treated as earliest by the merge.
func (r Record) UpdatedTime() (time.Time, bool) {
	return ParseTimestamp(r.UpdatedAt)
}

// Cleared reports whether the row represents a cleared entry (the user
// removed their location for the day). Cleared rows still participate in
// identity resolution so an undo is distinguishable from "never entered".
func (r Record) Cleared() bool {
	return strings.TrimSpace(r.Location) == ""
}

// ParseTimestamp accepts the canonical bookkeeping layout plus RFC 3339
// variants that older files produced.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{TimestampLayout, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t in the canonical bookkeeping layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}

// FromRow builds a Record from a canonical field map (the output of
// columns.NormalizeRow). Numeric bookkeeping fields parse leniently:
// garbage becomes the zero value rather than an error, per the recovery
// policy for per-field parse failures.
func FromRow(row map[string]string) Record {
	r := Record{
		Datum:        row[columns.ColDatum],
		Dan:          row[columns.ColDan],
		PersonName:   row[columns.ColPersonName],
		Department:   row[columns.ColDepartment],
		Location:     row[columns.ColLocation],
		Week:         atoi(row[columns.ColWeek]),
		Month:        atoi(row[columns.ColMonth]),
		Year:         atoi(row[columns.ColYear]),
		DateISO:      strings.TrimSpace(row[columns.ColDateISO]),
		RecordID:     strings.TrimSpace(row[columns.ColRecordID]),
		EmployeeID:   strings.TrimSpace(row[columns.ColEmployeeID]),
		CreatedAt:    strings.TrimSpace(row[columns.ColCreatedAt]),
		UpdatedAt:    strings.TrimSpace(row[columns.ColUpdatedAt]),
		Version:      atoi(row[columns.ColVersion]),
		Source:       strings.TrimSpace(row[columns.ColSource]),
		LocationID:   strings.TrimSpace(row[columns.ColLocationID]),
		LocationName: row[columns.ColLocationName],
		Note:         row[columns.ColNote],
	}
	for k, v := range row {
		if columns.IsCanonical(k) {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[k] = v
	}
	return r
}

// ToRow renders the record back into a canonical field map, including
// extras.
func (r Record) ToRow() map[string]string {
	row := map[string]string{
		columns.ColDatum:        r.Datum,
		columns.ColDan:          r.Dan,
		columns.ColPersonName:   r.PersonName,
		columns.ColDepartment:   r.Department,
		columns.ColLocation:     r.Location,
		columns.ColWeek:         itoa(r.Week),
		columns.ColMonth:        itoa(r.Month),
		columns.ColYear:         itoa(r.Year),
		columns.ColDateISO:      r.DateISO,
		columns.ColRecordID:     r.RecordID,
		columns.ColEmployeeID:   r.EmployeeID,
		columns.ColCreatedAt:    r.CreatedAt,
		columns.ColUpdatedAt:    r.UpdatedAt,
		columns.ColVersion:      itoa(r.Version),
		columns.ColSource:       r.Source,
		columns.ColLocationID:   r.LocationID,
		columns.ColLocationName: r.LocationName,
		columns.ColNote:         r.Note,
	}
	for k, v := range r.Extra {
		row[k] = v
	}
	return row
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
