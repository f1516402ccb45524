// Package dates provides timezone-normalized day arithmetic. All overdue-age
// and fee-period calculations use one canonical business-day boundary; the
// platform operates on Malaysian time, so the default is a fixed UTC+8 day.
package dates

import "time"

// BusinessDay is the canonical location for day-boundary calculations.
var BusinessDay = time.FixedZone("UTC+8", 8*60*60)

const hoursPerDay = 24

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of whole local days from 'from' to 'to',
// negative when 'to' precedes 'from'. Both instants are truncated to their
// start of day in loc before differencing.
func DaysBetween(from, to time.Time, loc *time.Location) int {
	a := StartOfDay(from, loc)
	b := StartOfDay(to, loc)
	return int(b.Sub(a).Hours() / hoursPerDay)
}

// DaysOverdue returns how many whole days asOf is past due, never negative.
// A repayment due today (same local day) is 0 days overdue.
func DaysOverdue(due, asOf time.Time, loc *time.Location) int {
	d := DaysBetween(due, asOf, loc)
	if d < 0 {
		return 0
	}
	return d
}

// SameDay reports whether a and b fall on the same local day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}
