package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AcceptedFormats(t *testing.T) {
	want := Date{Year: 2025, Month: time.September, Day: 1}
	for _, raw := range []string{
		"01.09.2025.",
		"1.9.2025",
		"01/09/2025",
		"2025-09-01",
		" 01.09.2025 .",
		"01-09-2025",
		"01. 09. 2025.",
	} {
		d, ok := Parse(raw)
		require.True(t, ok, "should parse %q", raw)
		assert.Equal(t, want, d, "wrong date for %q", raw)
	}
}

func TestParse_DayFirstWinsOverMonthFirst(t *testing.T) {
	// 03/04 is ambiguous; the domain convention is day-first.
	d, ok := Parse("03/04/2025")
	require.True(t, ok)
	assert.Equal(t, Date{Year: 2025, Month: time.April, Day: 3}, d)
}

func TestParse_MonthFirstFallback(t *testing.T) {
	// Day-first would need a month 13; the neutral fallback resolves it.
	d, ok := Parse("09/13/2025")
	require.True(t, ok)
	assert.Equal(t, Date{Year: 2025, Month: time.September, Day: 13}, d)
}

func TestParse_Rejections(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"not a date",
		"13.13.2025",
		"32.01.2025",
		"00.01.2025",
		"2025-13-01",
	} {
		_, ok := Parse(raw)
		assert.False(t, ok, "should reject %q", raw)
	}
}

func TestParse_RoundTripISO(t *testing.T) {
	orig := Date{Year: 2025, Month: time.September, Day: 1}
	d, ok := Parse(orig.ISO())
	require.True(t, ok)
	assert.Equal(t, orig, d)
}

func TestDate_Display(t *testing.T) {
	d := Date{Year: 2025, Month: time.September, Day: 1}
	assert.Equal(t, "01.09.2025.", d.Display())

	back, ok := Parse(d.Display())
	require.True(t, ok)
	assert.Equal(t, d, back)
}

func TestDate_DerivedFields(t *testing.T) {
	d := Date{Year: 2025, Month: time.September, Day: 1} // a Monday
	assert.Equal(t, 36, d.ISOWeek())
	assert.Equal(t, 3, d.Quarter())
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "Ponedjeljak", WeekdayNameHR(d.Weekday()))
}

func TestMondayOf(t *testing.T) {
	wed := Date{Year: 2025, Month: time.September, Day: 3}
	assert.Equal(t, Date{Year: 2025, Month: time.September, Day: 1}, MondayOf(wed))

	sun := Date{Year: 2025, Month: time.September, Day: 7}
	assert.Equal(t, Date{Year: 2025, Month: time.September, Day: 1}, MondayOf(sun))

	mon := Date{Year: 2025, Month: time.September, Day: 1}
	assert.Equal(t, mon, MondayOf(mon))
}

func TestWeekBounds(t *testing.T) {
	start, end := WeekBounds(Date{Year: 2025, Month: time.September, Day: 1})
	assert.Equal(t, Date{Year: 2025, Month: time.September, Day: 1}, start)
	assert.Equal(t, Date{Year: 2025, Month: time.September, Day: 7}, end)
}

func TestWeeksUntilYearEnd(t *testing.T) {
	assert.Equal(t, 0, WeeksUntilYearEnd(Date{Year: 2025, Month: time.December, Day: 29}))
	assert.Greater(t, WeeksUntilYearEnd(Date{Year: 2025, Month: time.September, Day: 1}), 10)
}

func TestMonthNameHR(t *testing.T) {
	name, err := MonthNameHR(time.September)
	require.NoError(t, err)
	assert.Equal(t, "Rujan", name)

	_, err = MonthNameHR(time.Month(13))
	assert.Error(t, err)
}
