package program

import "time"

// ResolveDay decides which activity, if any, is shown on day.
//
// Scheduled activities are shown on their own day when that day is today or
// later, or when they were completed. A past, incomplete activity is not
// shown on its own day; it is expected in the backlog instead. Any future
// in-month day left empty takes the front of the backlog.
//
// The backlog is consumed, so calls within one pass must run in ascending
// date order.
func ResolveDay(day, current time.Time, backlog *Backlog, p Program) (Activity, bool) {
	if !sameMonth(day, current) {
		return Activity{}, false
	}
	if p == nil {
		return Activity{}, false
	}

	day = StartOfDay(day)
	isFuture := !day.Before(StartOfDay(current))

	if scheduled, ok := scheduledOn(day, p); ok {
		if isFuture || scheduled.Completed {
			scheduled.ResolvedDate = day
			return scheduled, true
		}
	}

	if isFuture {
		if next, ok := backlog.Pop(); ok {
			return next, true
		}
	}
	return Activity{}, false
}

// scheduledOn finds the activity planned for day's weekday in day's ISO week.
func scheduledOn(day time.Time, p Program) (Activity, bool) {
	acts, ok := p[DateToISOWeek(day)]
	if !ok {
		return Activity{}, false
	}
	name := WeekdayOf(day)
	for _, a := range acts {
		if a.Weekday == name {
			return a, true
		}
	}
	return Activity{}, false
}
