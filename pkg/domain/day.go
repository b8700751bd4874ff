package domain

import "time"

// DateOf truncates t to its calendar date, expressed as midnight UTC.
// The year, month and day are read in t's own location, so a calendar date
// built in any zone keeps its components.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UTCDate returns the UTC calendar date of an instant.
func UTCDate(t time.Time) time.Time {
	return DateOf(t.UTC())
}

// DaysBetween counts whole calendar days from start to end. Both values are
// reduced to their date components first, so time of day and DST shifts never
// affect the result.
func DaysBetween(start, end time.Time) int {
	a := DateOf(start)
	b := DateOf(end)
	return int(b.Sub(a).Hours() / 24)
}

// CurrentDay returns the 1-based relative day of an experiment started on
// startDate, as observed at now in UTC, clamped to [1, durationDays].
func CurrentDay(startDate time.Time, durationDays int, now time.Time) int {
	day := DaysBetween(startDate, now.UTC()) + 1
	if day < 1 {
		return 1
	}
	if day > durationDays {
		return durationDays
	}
	return day
}
