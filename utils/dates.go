// utils/dates.go
package utils

import "time"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

// LastDayOfMonth returns the number of days in the month containing t.
func LastDayOfMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}

// AddMonthsClamped advances origin by the given number of calendar months and
// sets the day of month to targetDay, clamped to the last valid day of the
// target month. The due date never rolls over into the following month:
// Jan 31 + 1 month with target day 31 is Feb 28 (or 29), not Mar 3.
func AddMonthsClamped(origin time.Time, months, targetDay int) time.Time {
	first := time.Date(origin.Year(), origin.Month(), 1, 0, 0, 0, 0, origin.Location())
	target := first.AddDate(0, months, 0)

	day := targetDay
	if last := LastDayOfMonth(target); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, origin.Location())
}
