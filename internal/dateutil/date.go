// Package dateutil parses the heterogeneous date strings found in tracker
// files and provides the calendar arithmetic the rest of the system needs.
//
// The dominant convention in the source data is day-first Croatian notation
// with a trailing period ("01.09.2025."), but successive file versions also
// carry slash- and dash-separated forms, unpadded components, and ISO dates.
// Parse tries day-first layouts before locale-neutral ones so that ambiguous
// strings resolve the way the domain expects.
package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// Date is a civil calendar date with no time component or zone.
// The zero value is "no date" and reports IsZero() == true.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ISOLayout is the canonical wire format for dates (date_iso column).
const ISOLayout = "2006-01-02"

// DisplayLayout is the Croatian display format used in the Datum column.
const DisplayLayout = "02.01.2006."

// dayFirstLayouts are tried first; the domain convention is day-first.
// Unpadded reference values accept both padded and unpadded input.
var dayFirstLayouts = []string{
	"2.1.2006",
	"2/1/2006",
	"2-1-2006",
	"2. 1. 2006",
}

// neutralLayouts are the fallback set: ISO forms and month-first variants.
var neutralLayouts = []string{
	"2006-01-02",
	"2006/1/2",
	"2006.1.2",
	"1/2/2006",
	"1-2-2006",
}

// Parse interprets a free-text date string.
//
// It trims surrounding whitespace, collapses internal whitespace runs, and
// strips a single trailing period before attempting the layout sets. A
// malformed component (month 13, day 0) fails cleanly rather than clamping.
// Returns the zero Date and false when nothing matches; it never panics.
func Parse(raw string) (Date, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return Date{}, false
	}
	// A single trailing period is punctuation ("01.09.2025 ."), not part of
	// the date. ISO and slash forms never end in one.
	if strings.HasSuffix(s, ".") {
		s = strings.TrimRight(strings.TrimSuffix(s, "."), " ")
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), true
		}
	}
	for _, layout := range neutralLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), true
		}
	}
	return Date{}, false
}

// ParseISO parses the canonical YYYY-MM-DD form only.
func ParseISO(s string) (Date, bool) {
	t, err := time.Parse(ISOLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, false
	}
	return FromTime(t), true
}

// FromTime truncates a time.Time to its civil date.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the "no date" sentinel.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time returns the date at UTC midnight.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// ISO formats the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Time().Format(ISOLayout)
}

// Display formats the date in Croatian day-first notation with the
// customary trailing period.
func (d Date) Display() string {
	return d.Time().Format(DisplayLayout)
}

// ISOWeek returns the ISO 8601 week number.
func (d Date) ISOWeek() int {
	_, w := d.Time().ISOWeek()
	return w
}

// ISOWeekYear returns the ISO 8601 week-numbering year, which can differ
// from the calendar year near year boundaries.
func (d Date) ISOWeekYear() int {
	y, _ := d.Time().ISOWeek()
	return y
}

// Quarter returns the calendar quarter 1..4.
func (d Date) Quarter() int {
	return (int(d.Month)-1)/3 + 1
}

// Weekday returns the weekday of the date.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// Compare returns -1, 0 or +1 comparing d against other chronologically.
func (d Date) Compare(other Date) int {
	return d.Time().Compare(other.Time())
}

func (d Date) String() string {
	if d.IsZero() {
		return "<no date>"
	}
	return d.ISO()
}

// MondayOf returns the Monday of the ISO week containing d.
func MondayOf(d Date) Date {
	wd := int(d.Weekday())
	if wd == 0 { // Sunday
		wd = 7
	}
	return d.AddDays(-(wd - 1))
}

// WeekBounds returns the Monday and Sunday of the week starting at monday.
func WeekBounds(monday Date) (Date, Date) {
	return monday, monday.AddDays(6)
}

// WeeksUntilYearEnd returns how many whole weeks lie between the week of
// ref and the week containing December 31 of the same year.
func WeeksUntilYearEnd(ref Date) int {
	start := MondayOf(ref)
	end := MondayOf(Date{Year: ref.Year, Month: time.December, Day: 31})
	days := int(end.Time().Sub(start.Time()).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 7
}

// WeekdayNameHR maps a weekday to its Croatian name.
func WeekdayNameHR(wd time.Weekday) string {
	names := [...]string{"Nedjelja", "Ponedjeljak", "Utorak", "Srijeda", "Četvrtak", "Petak", "Subota"}
	return names[int(wd)]
}

// MonthNameHR maps a month to its Croatian name.
func MonthNameHR(m time.Month) (string, error) {
	if m < time.January || m > time.December {
		return "", fmt.Errorf("month out of range: %d", m)
	}
	names := [...]string{
		"Siječanj", "Veljača", "Ožujak", "Travanj", "Svibanj", "Lipanj",
		"Srpanj", "Kolovoz", "Rujan", "Listopad", "Studeni", "Prosinac",
	}
	return names[int(m)-1], nil
}
