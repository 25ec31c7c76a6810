package core

import (
	"fmt"
	"time"
)

// DateKey is a civil date serialized as YYYY-MM-DD. It is the canonical join
// key between log records and period buckets: keys compare lexicographically
// in the same order as chronologically, so half-open range checks are plain
// string comparisons.
type DateKey string

const dateKeyLayout = "2006-01-02"

// ToDateKey formats an instant as a DateKey using its civil date.
// Returns ErrInvalidDate for the zero instant.
func ToDateKey(t time.Time) (DateKey, error) {
	if t.IsZero() {
		return "", ErrInvalidDate
	}
	return DateKey(t.Format(dateKeyLayout)), nil
}

// ParseDateKey parses a DateKey strictly. Malformed strings and
// calendar-invalid dates (e.g. 2024-02-30) return ok=false; nothing is
// silently clamped.
func ParseDateKey(key DateKey) (time.Time, bool) {
	t, err := time.Parse(dateKeyLayout, string(key))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Before reports whether k sorts strictly before other.
func (k DateKey) Before(other DateKey) bool { return k < other }

// StartOfDay returns midnight of t's civil date, preserving the location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's civil date.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// AddDays returns t shifted by n civil days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// StartOfWeekMonday returns midnight of the Monday on or before t.
// Sunday maps six days back, not zero.
func StartOfWeekMonday(t time.Time) time.Time {
	back := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -back)
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ISOWeekKey returns the ISO-8601 week key (YYYY-Www) for t. The ISO year is
// derived from the Thursday of the containing week, so late-December and
// early-January dates may carry a different year than their calendar year.
// The result depends only on the civil date, never on the time of day.
func ISOWeekKey(t time.Time) PeriodKey {
	year, week := StartOfDay(t).ISOWeek()
	return PeriodKey(fmt.Sprintf("%04d-W%02d", year, week))
}
