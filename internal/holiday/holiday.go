// Package holiday computes Croatian public holidays: the fixed statutory
// dates plus the movable feasts derived from Easter. The tracker uses the
// result to pre-populate non-editable calendar entries.
package holiday

import (
	"fmt"
	"time"

	"github.com/dvidovic/lokator/internal/dateutil"
)

// The Gregorian computus below is valid for this year range. The calendar
// itself was adopted in 1582.
const (
	MinYear = 1583
	MaxYear = 4099
)

// ErrYearOutOfRange reports a year outside the computus domain.
type ErrYearOutOfRange struct {
	Year int
}

func (e *ErrYearOutOfRange) Error() string {
	return fmt.Sprintf("holiday: year %d outside supported range [%d..%d]", e.Year, MinYear, MaxYear)
}

// Easter returns Easter Sunday for a year using the Meeus/Jones/Butcher
// Gregorian algorithm.
func Easter(year int) (dateutil.Date, error) {
	if year < MinYear || year > MaxYear {
		return dateutil.Date{}, &ErrYearOutOfRange{Year: year}
	}
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return dateutil.Date{Year: year, Month: time.Month(month), Day: day}, nil
}

// CorpusChristi is 60 days after Easter Sunday.
func CorpusChristi(year int) (dateutil.Date, error) {
	easter, err := Easter(year)
	if err != nil {
		return dateutil.Date{}, err
	}
	return easter.AddDays(60), nil
}

// fixed statutory holidays, (month, day, name).
var fixed = []struct {
	month time.Month
	day   int
	name  string
}{
	{time.January, 1, "Nova godina"},
	{time.January, 6, "Bogojavljenje ili Sveta tri kralja"},
	{time.May, 1, "Praznik rada"},
	{time.May, 30, "Dan državnosti"},
	{time.June, 22, "Dan antifašističke borbe"},
	{time.August, 5, "Dan pobjede i domovinske zahvalnosti i Dan hrvatskih branitelja"},
	{time.August, 15, "Velika Gospa"},
	{time.November, 1, "Dan svih svetih"},
	{time.November, 18, "Dan sjećanja na žrtve Domovinskog rata"},
	{time.December, 25, "Božić"},
	{time.December, 26, "Sveti Stjepan"},
}

// ForYear returns every Croatian public holiday of the year keyed by
// date: the fixed statutory dates, Easter Sunday and Monday, and Corpus
// Christi.
func ForYear(year int) (map[dateutil.Date]string, error) {
	easter, err := Easter(year)
	if err != nil {
		return nil, err
	}
	out := make(map[dateutil.Date]string, len(fixed)+3)
	for _, f := range fixed {
		out[dateutil.Date{Year: year, Month: f.month, Day: f.day}] = f.name
	}
	out[easter] = "Uskrs"
	out[easter.AddDays(1)] = "Uskrsni ponedjeljak"
	out[easter.AddDays(60)] = "Tijelovo"
	return out, nil
}

// Lookup is the collaborator shape the form layer consumes: date → name.
type Lookup func(d dateutil.Date) (string, bool)

// LookupForYears builds a Lookup covering the given years.
func LookupForYears(years ...int) (Lookup, error) {
	all := make(map[dateutil.Date]string)
	for _, y := range years {
		m, err := ForYear(y)
		if err != nil {
			return nil, err
		}
		for d, name := range m {
			all[d] = name
		}
	}
	return func(d dateutil.Date) (string, bool) {
		name, ok := all[d]
		return name, ok
	}, nil
}
