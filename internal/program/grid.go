package program

import "time"

// Week is one grid row, Monday through Sunday.
type Week [7]time.Time

// Grid is the Monday-aligned set of rows covering a month.
type Grid []Week

// GenerateMonthGrid builds the rows covering ref's month, padded with days
// of the adjacent months so every row starts on Monday and ends on Sunday.
func GenerateMonthGrid(ref time.Time) Grid {
	first := StartOfMonth(ref)
	last := first.AddDate(0, 1, -1)

	start := StartOfWeek(first)
	end := StartOfWeek(last).AddDate(0, 0, 6)

	var grid Grid
	for day := start; !day.After(end); day = day.AddDate(0, 0, 7) {
		var row Week
		for i := range row {
			row[i] = day.AddDate(0, 0, i)
		}
		grid = append(grid, row)
	}
	return grid
}

// Days flattens the grid in ascending date order.
func (g Grid) Days() []time.Time {
	days := make([]time.Time, 0, len(g)*7)
	for _, row := range g {
		days = append(days, row[:]...)
	}
	return days
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// sameMonth compares calendar month and year.
func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}

// sameDay compares calendar dates.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
