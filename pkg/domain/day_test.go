package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCurrentDayScenario(t *testing.T) {
	start := date(2024, 1, 1)
	cases := []struct {
		now  time.Time
		want int
	}{
		{date(2024, 1, 1), 1},
		{date(2024, 1, 15), 15},
		{date(2024, 3, 1), 30},
		{date(2023, 12, 25), 1},
	}
	for _, tc := range cases {
		if got := CurrentDay(start, 30, tc.now); got != tc.want {
			t.Fatalf("CurrentDay(%s) = %d, want %d", tc.now.Format(time.DateOnly), got, tc.want)
		}
	}
}

func TestCurrentDayIgnoresTimeOfDay(t *testing.T) {
	start := date(2024, 1, 1)
	lateUTC := time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC)
	if got := CurrentDay(start, 30, lateUTC); got != 1 {
		t.Fatalf("expected day 1 just before UTC midnight, got %d", got)
	}
	nextUTC := time.Date(2024, 1, 2, 0, 0, 1, 0, time.UTC)
	if got := CurrentDay(start, 30, nextUTC); got != 2 {
		t.Fatalf("expected day 2 just after UTC midnight, got %d", got)
	}
	// 2024-01-01 20:00 in New York is already 2024-01-02 in UTC.
	ny := time.FixedZone("EST", -5*3600)
	evening := time.Date(2024, 1, 1, 20, 0, 0, 0, ny)
	if got := CurrentDay(start, 30, evening); got != 2 {
		t.Fatalf("expected UTC reference day 2, got %d", got)
	}
}

func TestCurrentDayAcrossDaylightSavingShift(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	start := time.Date(2024, 3, 9, 0, 0, 0, 0, loc)
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	if got := CurrentDay(start, 30, now); got != 3 {
		t.Fatalf("expected day 3 across spring-forward, got %d", got)
	}
}

func TestCurrentDayMonotonicAndBounded(t *testing.T) {
	for _, duration := range []int{1, 7, 30, 90} {
		start := date(2024, 2, 27)
		prev := 0
		for offset := 0; offset < 120; offset++ {
			now := start.AddDate(0, 0, offset).Add(time.Duration(offset%24) * time.Hour)
			got := CurrentDay(start, duration, now)
			if got < 1 || got > duration {
				t.Fatalf("duration %d offset %d: day %d out of bounds", duration, offset, got)
			}
			if got < prev {
				t.Fatalf("duration %d offset %d: day decreased from %d to %d", duration, offset, prev, got)
			}
			prev = got
		}
	}
}

func TestDateOfKeepsCalendarComponents(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	in := time.Date(2024, 5, 1, 1, 30, 0, 0, tokyo)
	if got := DateOf(in); !got.Equal(date(2024, 5, 1)) {
		t.Fatalf("expected 2024-05-01, got %s", got)
	}
	if got := UTCDate(in); !got.Equal(date(2024, 4, 30)) {
		t.Fatalf("expected UTC date 2024-04-30, got %s", got)
	}
	if got := DaysBetween(date(2024, 2, 28), date(2024, 3, 1)); got != 2 {
		t.Fatalf("expected leap-year gap of 2 days, got %d", got)
	}
}
