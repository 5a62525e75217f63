package program

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DayCell is one resolved grid day
type DayCell struct {
	Date     time.Time
	InMonth  bool
	IsToday  bool
	Activity *Activity

	// RolledOver marks an activity taken from the backlog rather than
	// scheduled on this day.
	RolledOver bool
}

// Display returns the upper-cased activity title, or "" for an empty cell.
func (c DayCell) Display() string {
	if c.Activity == nil {
		return ""
	}
	return strings.ToUpper(c.Activity.Title)
}

// MarshalJSON renders dates as YYYY-MM-DD and includes the display title.
func (c DayCell) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date       string    `json:"date"`
		InMonth    bool      `json:"inMonth"`
		IsToday    bool      `json:"isToday"`
		Activity   *Activity `json:"activity,omitempty"`
		Display    string    `json:"display,omitempty"`
		RolledOver bool      `json:"rolledOver,omitempty"`
	}{
		Date:       c.Date.Format(DateLayout),
		InMonth:    c.InMonth,
		IsToday:    c.IsToday,
		Activity:   c.Activity,
		Display:    c.Display(),
		RolledOver: c.RolledOver,
	})
}

// MonthView is the result of one resolution pass
type MonthView struct {
	Month time.Time           `json:"-"`
	Today time.Time           `json:"-"`
	Weeks [][7]DayCell        `json:"weeks"`
	Stats MonthViewStatistics `json:"stats"`
}

// MonthViewStatistics summarises a pass.
type MonthViewStatistics struct {
	Scheduled  int `json:"scheduled"`
	RolledOver int `json:"rolledOver"`
	// Unplaced counts backlog items left when the month ran out of days.
	Unplaced int `json:"unplaced"`
}

// MarshalJSON adds the month and today as strings.
func (v MonthView) MarshalJSON() ([]byte, error) {
	type alias MonthView
	return json.Marshal(struct {
		Month string `json:"month"`
		Today string `json:"today"`
		alias
	}{
		Month: v.Month.Format("2006-01"),
		Today: v.Today.Format(DateLayout),
		alias: alias(v),
	})
}

// Activities returns every cell that carries an activity, in date order.
func (v *MonthView) Activities() []DayCell {
	var cells []DayCell
	for _, row := range v.Weeks {
		for _, c := range row {
			if c.Activity != nil {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// ResolveMonth runs a full pass for now's month against p. The backlog is
// built here and consumed day by day in ascending order; it never leaves
// this call.
func ResolveMonth(p Program, now time.Time) (*MonthView, error) {
	today := StartOfDay(now)

	var backlog *Backlog
	if p != nil {
		var err error
		backlog, err = CollectIncomplete(p, today)
		if err != nil {
			return nil, fmt.Errorf("collecting backlog: %w", err)
		}
	}

	grid := GenerateMonthGrid(today)
	view := &MonthView{
		Month: StartOfMonth(today),
		Today: today,
		Weeks: make([][7]DayCell, len(grid)),
	}

	for i, row := range grid {
		for j, day := range row {
			before := backlog.Len()
			cell := DayCell{
				Date:    day,
				InMonth: sameMonth(day, today),
				IsToday: sameDay(day, today),
			}
			if act, ok := ResolveDay(day, today, backlog, p); ok {
				cell.Activity = &act
				cell.RolledOver = backlog.Len() < before
				if cell.RolledOver {
					view.Stats.RolledOver++
				} else {
					view.Stats.Scheduled++
				}
			}
			view.Weeks[i][j] = cell
		}
	}
	view.Stats.Unplaced = backlog.Len()
	return view, nil
}
