package ledger

import (
	"time"

	"github.com/NicolasBispo/personal-finances-app/internal/models"
)

// DateLayout is the wire format for all dates (ISO-8601 date only).
const DateLayout = "2006-01-02"

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of t's day in UTC, so inclusive range
// checks can use Before/After directly.
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

// AddMonthsClamped adds months to t, clamping the day to the last day of
// the target month. Jan 31 + 1 month is Feb 29 (leap) or Feb 28, never
// Mar 2/3 as plain AddDate would produce.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, months, 0)
	if last := lastDayOfMonth(firstOfTarget.Year(), firstOfTarget.Month()); d > last {
		d = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	// day 0 of the next month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextAfter computes the occurrence that follows t for the given pattern.
func NextAfter(t time.Time, pattern models.RecurrencePattern) (time.Time, error) {
	switch pattern {
	case models.RecurWeekly:
		return t.AddDate(0, 0, 7), nil
	case models.RecurMonthly:
		return AddMonthsClamped(t, 1), nil
	case models.RecurYearly:
		return AddMonthsClamped(t, 12), nil
	default:
		return time.Time{}, E(KindValidation, "unknown recurrence pattern %q", pattern)
	}
}
