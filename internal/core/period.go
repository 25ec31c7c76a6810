package core

import (
	"fmt"
	"time"
)

const (
	PeriodDay   PeriodKind = "day"
	PeriodWeek  PeriodKind = "week"
	PeriodMonth PeriodKind = "month"
)

type (
	// PeriodKind is one of day, week or month.
	PeriodKind string

	// PeriodKey canonically names one period: a DateKey for days, YYYY-Www
	// for ISO weeks, YYYY-MM for months.
	PeriodKey string

	// PeriodRange is a half-open [Start, EndExclusive) window of civil dates.
	// Ranges of the same kind partition the calendar.
	PeriodRange struct {
		Kind         PeriodKind `json:"kind"`
		Key          PeriodKey  `json:"key"`
		Start        DateKey    `json:"start"`
		EndExclusive DateKey    `json:"end_exclusive"`
	}
)

// IsValid reports whether the kind is one of the three supported kinds.
func (k PeriodKind) IsValid() bool {
	switch k {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

// Contains reports whether the date key falls inside the half-open range.
func (r PeriodRange) Contains(key DateKey) bool {
	return key >= r.Start && key < r.EndExclusive
}

// StartTime returns the range start as a midnight instant in UTC.
func (r PeriodRange) StartTime() time.Time {
	t, _ := ParseDateKey(r.Start)
	return t
}

// EndTime returns the exclusive range end as a midnight instant in UTC.
func (r PeriodRange) EndTime() time.Time {
	t, _ := ParseDateKey(r.EndExclusive)
	return t
}

// ResolvePeriod produces the period range for the given kind. When
// explicitKey is non-empty and parses validly for the kind, the range is
// reconstructed from the key (e.g. "show me last week"); otherwise it is
// derived from the reference instant. A present-but-unparsable key falls
// back to the current period rather than failing: stale or hand-edited keys
// are user input drift, not programmer errors.
func ResolvePeriod(kind PeriodKind, reference time.Time, explicitKey PeriodKey) (PeriodRange, error) {
	if !kind.IsValid() {
		return PeriodRange{}, fmt.Errorf("%w: %q", ErrUnsupportedPeriodKind, kind)
	}
	if reference.IsZero() {
		return PeriodRange{}, ErrInvalidDate
	}

	anchor := StartOfDay(reference)
	if explicitKey != "" {
		if t, ok := parsePeriodKey(kind, explicitKey); ok {
			anchor = t
		}
	}

	switch kind {
	case PeriodDay:
		start := StartOfDay(anchor)
		return buildRange(kind, PeriodKey(start.Format(dateKeyLayout)), start, AddDays(start, 1)), nil
	case PeriodWeek:
		start := StartOfWeekMonday(anchor)
		return buildRange(kind, ISOWeekKey(start), start, AddDays(start, 7)), nil
	default: // PeriodMonth
		start := StartOfMonth(anchor)
		key := PeriodKey(fmt.Sprintf("%04d-%02d", start.Year(), int(start.Month())))
		return buildRange(kind, key, start, start.AddDate(0, 1, 0)), nil
	}
}

func buildRange(kind PeriodKind, key PeriodKey, start, end time.Time) PeriodRange {
	return PeriodRange{
		Kind:         kind,
		Key:          key,
		Start:        DateKey(start.Format(dateKeyLayout)),
		EndExclusive: DateKey(end.Format(dateKeyLayout)),
	}
}

// parsePeriodKey returns an instant inside the period named by key, or
// ok=false when the key does not parse for the kind.
func parsePeriodKey(kind PeriodKind, key PeriodKey) (time.Time, bool) {
	switch kind {
	case PeriodDay:
		return ParseDateKey(DateKey(key))
	case PeriodWeek:
		return parseISOWeekKey(key)
	case PeriodMonth:
		t, err := time.Parse("2006-01", string(key))
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// parseISOWeekKey resolves YYYY-Www to the Monday of that ISO week.
// January 4th is always inside ISO week 1 of its year.
func parseISOWeekKey(key PeriodKey) (time.Time, bool) {
	var year, week int
	if _, err := fmt.Sscanf(string(key), "%4d-W%2d", &year, &week); err != nil {
		return time.Time{}, false
	}
	if year < 1 || week < 1 || week > 53 {
		return time.Time{}, false
	}
	week1 := StartOfWeekMonday(time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC))
	monday := AddDays(week1, (week-1)*7)
	// Week 53 only exists in long ISO years; reject keys that roll over.
	if ISOWeekKey(monday) != key {
		return time.Time{}, false
	}
	return monday, true
}
