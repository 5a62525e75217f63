package program

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// ErrInvalidWeekday is returned for names outside the seven canonical days.
var ErrInvalidWeekday = errors.New("invalid weekday")

var weekdayOffsets = map[Weekday]int{
	Monday:    0,
	Tuesday:   1,
	Wednesday: 2,
	Thursday:  3,
	Friday:    4,
	Saturday:  5,
	Sunday:    6,
}

// Valid reports whether w is exactly one of the canonical names.
func (w Weekday) Valid() bool {
	_, ok := weekdayOffsets[w]
	return ok
}

// ParseWeekday resolves a day name case-insensitively.
func ParseWeekday(name string) (Weekday, error) {
	w := Weekday(strings.ToUpper(strings.TrimSpace(name)))
	if !w.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
	}
	return w, nil
}

// WeekdayOf returns the canonical name of t's day of week.
func WeekdayOf(t time.Time) Weekday {
	return Weekdays[isoOffset(t.Weekday())]
}

// isoOffset maps time.Weekday (Sunday=0) to a Monday-based offset.
func isoOffset(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// StartOfDay truncates t to local midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -isoOffset(day.Weekday()))
}

// WeekNumberToDate returns the date of weekday in ISO week of year, in the
// local time zone.
func WeekNumberToDate(week int, weekday string, year int) (time.Time, error) {
	return WeekNumberToDateIn(week, weekday, year, time.Local)
}

// WeekNumberToDateIn is WeekNumberToDate for an explicit location. ISO week 1
// is the week containing January 4th, so dates in week 1 or week 52/53 can
// fall in the neighbouring calendar year.
func WeekNumberToDateIn(week int, weekday string, year int, loc *time.Location) (time.Time, error) {
	wd, err := ParseWeekday(weekday)
	if err != nil {
		return time.Time{}, err
	}
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	firstMonday := StartOfWeek(jan4)
	return firstMonday.AddDate(0, 0, (week-1)*7+weekdayOffsets[wd]), nil
}

// DateToISOWeek returns the ISO week number of t.
func DateToISOWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}
