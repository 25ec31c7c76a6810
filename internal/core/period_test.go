package core

import (
	"errors"
	"testing"
	"time"
)

func TestResolvePeriodContainsReference(t *testing.T) {
	refs := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 15, 8, 30, 0, 0, time.UTC),
	}
	for _, kind := range []PeriodKind{PeriodDay, PeriodWeek, PeriodMonth} {
		for i, ref := range refs {
			rng, err := ResolvePeriod(kind, ref, "")
			if err != nil {
				t.Fatalf("%s case %d: %v", kind, i, err)
			}
			key, _ := ToDateKey(ref)
			if !rng.Contains(key) {
				t.Fatalf("%s case %d: %s not in [%s, %s)", kind, i, key, rng.Start, rng.EndExclusive)
			}
		}
	}
}

func TestResolvePeriodKeysAndBounds(t *testing.T) {
	ref := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC) // a Wednesday
	cases := []struct {
		kind       PeriodKind
		wantKey    string
		wantStart  string
		wantEndExc string
	}{
		{PeriodDay, "2024-01-03", "2024-01-03", "2024-01-04"},
		{PeriodWeek, "2024-W01", "2024-01-01", "2024-01-08"},
		{PeriodMonth, "2024-01", "2024-01-01", "2024-02-01"},
	}
	for i, tc := range cases {
		rng, err := ResolvePeriod(tc.kind, ref, "")
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if string(rng.Key) != tc.wantKey || string(rng.Start) != tc.wantStart || string(rng.EndExclusive) != tc.wantEndExc {
			t.Fatalf("case %d got %+v", i, rng)
		}
	}
}

func TestResolvePeriodExplicitKey(t *testing.T) {
	ref := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		kind      PeriodKind
		key       PeriodKey
		wantStart string
	}{
		{PeriodDay, "2024-02-29", "2024-02-29"},
		{PeriodWeek, "2023-W52", "2023-12-25"},
		{PeriodWeek, "2020-W53", "2020-12-28"},
		{PeriodMonth, "2023-11", "2023-11-01"},
	}
	for i, tc := range cases {
		rng, err := ResolvePeriod(tc.kind, ref, tc.key)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if string(rng.Start) != tc.wantStart {
			t.Fatalf("case %d got start %s want %s", i, rng.Start, tc.wantStart)
		}
		if rng.Key != tc.key {
			t.Fatalf("case %d key %s did not round-trip (%s)", i, tc.key, rng.Key)
		}
	}
}

func TestResolvePeriodBadKeyFallsBack(t *testing.T) {
	ref := time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC)
	bad := []struct {
		kind PeriodKind
		key  PeriodKey
	}{
		{PeriodDay, "2024-02-30"},
		{PeriodDay, "yesterday"},
		{PeriodWeek, "2024-W60"},
		{PeriodWeek, "2024-W53"}, // 2024 has 52 ISO weeks
		{PeriodWeek, "2024-12-01"},
		{PeriodMonth, "2024-13"},
		{PeriodMonth, "garbage"},
	}
	for i, tc := range bad {
		rng, err := ResolvePeriod(tc.kind, ref, tc.key)
		if err != nil {
			t.Fatalf("case %d: bad key must not fail: %v", i, err)
		}
		want, err := ResolvePeriod(tc.kind, ref, "")
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if rng != want {
			t.Fatalf("case %d: expected fallback to current period, got %+v", i, rng)
		}
	}
}

func TestResolvePeriodUnsupportedKind(t *testing.T) {
	_, err := ResolvePeriod("year", time.Now(), "")
	if !errors.Is(err, ErrUnsupportedPeriodKind) {
		t.Fatalf("expected ErrUnsupportedPeriodKind, got %v", err)
	}
}

func TestResolvePeriodZeroReference(t *testing.T) {
	if _, err := ResolvePeriod(PeriodDay, time.Time{}, ""); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for zero reference")
	}
}

func TestWeekRangesPartition(t *testing.T) {
	// Consecutive weeks must tile the calendar with no gap or overlap.
	ref := time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		cur, _ := ResolvePeriod(PeriodWeek, ref, "")
		next, _ := ResolvePeriod(PeriodWeek, AddDays(ref, 7), "")
		if cur.EndExclusive != next.Start {
			t.Fatalf("week %d: gap between %s and %s", i, cur.EndExclusive, next.Start)
		}
		ref = AddDays(ref, 7)
	}
}
