// Package recurrence computes schedule due dates. Everything here is pure:
// identical inputs always produce identical outputs.
package recurrence

import (
	"time"

	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/types"
)

// NextDueDate returns the next date on/after `after` that the definition is
// due, or false when the schedule has nothing left to execute (one-time
// already consumed, or execution cap reached).
//
// Due dates land on the definition's anchor day each period. When the target
// month is shorter than the anchor day the date clamps to the month's last
// day; the anchor is preserved for later months, so a monthly day-31 schedule
// runs Jan 31, Feb 28 (or 29), Mar 31, Apr 30.
func NextDueDate(def *models.ScheduleDefinition, after time.Time) (time.Time, bool) {
	if def.CapReached() {
		return time.Time{}, false
	}

	if def.Interval == types.IntervalNone && def.ExecutionsSoFar >= 1 {
		return time.Time{}, false
	}

	step := types.IntervalMonths(def.Interval)
	if step == 0 {
		// One-time schedules probe month by month for the first anchor
		// day on/after the start date.
		step = 1
	}

	after = DateOf(after)

	var candidate time.Time
	if def.NextDueDate.Valid {
		// Advance one interval from the most recent due date.
		candidate = advance(DateOf(def.NextDueDate.Time), step, def.AnchorDay)
	} else {
		start := DateOf(def.StartDate)
		candidate = anchored(start.Year(), start.Month(), def.AnchorDay)
		if candidate.Before(start) {
			candidate = advance(candidate, step, def.AnchorDay)
		}
	}

	for candidate.Before(after) {
		candidate = advance(candidate, step, def.AnchorDay)
	}

	return candidate, true
}

// advance moves a due date forward by `months`, re-deriving the day from the
// anchor so a clamped February date does not stick to day 28 forever.
func advance(from time.Time, months int, anchorDay int) time.Time {
	year, month, _ := from.Date()
	month += time.Month(months)

	return anchored(year, month, anchorDay)
}

// anchored returns the date in (year, month) on the anchor day, clamped to
// the month's last day when the month is shorter.
func anchored(year int, month time.Month, anchorDay int) time.Time {
	day := anchorDay
	if last := DaysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in the month, February included.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
