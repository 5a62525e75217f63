package app

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

const icsUIDDomain = "treatment-calendar.wb-services"

func exportFilename(view *program.MonthView, ext string) string {
	return fmt.Sprintf("treatment_program_%s.%s", view.Month.Format("2006-01"), ext)
}

// icsEscape escapes TEXT values (RFC 5545 3.3.11).
func icsEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	return r.Replace(s)
}

// GenerateICS writes the month's activities as all-day events. A reminder
// in HH:MM adds an alarm at that time on the event day.
func GenerateICS(w http.ResponseWriter, view *program.MonthView, reminder string, now time.Time) error {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename(view, "ics"))

	bw := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		fmt.Fprintf(bw, format+"\r\n", args...)
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:%s", ICSProductID)
	line("X-WR-CALNAME:%s %s", ICSCalName, view.Month.Format("January 2006"))
	line("CALSCALE:GREGORIAN")

	stamp := now.UTC().Format("20060102T150405Z")
	for _, cell := range view.Activities() {
		a := cell.Activity
		day := cell.Date

		line("BEGIN:VEVENT")
		line("UID:%s-%s@%s", day.Format("20060102"), strings.ToLower(string(a.Weekday)), icsUIDDomain)
		line("DTSTAMP:%s", stamp)
		line("DTSTART;VALUE=DATE:%s", day.Format("20060102"))
		line("DTEND;VALUE=DATE:%s", day.AddDate(0, 0, 1).Format("20060102"))
		line("SUMMARY:%s", icsEscape(cell.Display()))
		if cell.RolledOver {
			line("DESCRIPTION:%s", icsEscape("Rolled over from "+a.ResolvedDate.Format(program.DateLayout)))
		}
		if a.Completed {
			line("STATUS:CONFIRMED")
		} else {
			line("STATUS:TENTATIVE")
		}
		if trigger, ok := alarmTrigger(reminder); ok {
			line("BEGIN:VALARM")
			line("ACTION:DISPLAY")
			line("DESCRIPTION:%s", icsEscape("Reminder: "+cell.Display()))
			line("TRIGGER:%s", trigger)
			line("END:VALARM")
		}
		line("END:VEVENT")
	}

	line("END:VCALENDAR")
	return bw.Flush()
}

// alarmTrigger turns "HH:MM" into a duration from the start of an all-day
// event, e.g. "07:30" -> "PT7H30M".
func alarmTrigger(hhmm string) (string, bool) {
	hour, minute, ok := strings.Cut(hhmm, ":")
	if !ok {
		return "", false
	}
	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 23 {
		return "", false
	}
	m, err := strconv.Atoi(minute)
	if err != nil || m < 0 || m > 59 {
		return "", false
	}
	return fmt.Sprintf("PT%dH%dM", h, m), true
}

// GenerateCSV writes one row per day that shows an activity.
func GenerateCSV(w http.ResponseWriter, view *program.MonthView) error {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename(view, "csv"))

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "weekday", "title", "completed", "rolled_over", "scheduled_for"}); err != nil {
		return err
	}
	for _, cell := range view.Activities() {
		a := cell.Activity
		if err := cw.Write([]string{
			cell.Date.Format(program.DateLayout),
			string(program.WeekdayOf(cell.Date)),
			a.Title,
			strconv.FormatBool(a.Completed),
			strconv.FormatBool(cell.RolledOver),
			a.ResolvedDate.Format(program.DateLayout),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// GenerateJSON writes the month's activity cells.
func GenerateJSON(w http.ResponseWriter, view *program.MonthView) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename(view, "json"))

	activities := view.Activities()
	if activities == nil {
		activities = []program.DayCell{}
	}
	return json.NewEncoder(w).Encode(map[string]any{
		"month":      view.Month.Format("2006-01"),
		"activities": activities,
		"stats":      view.Stats,
	})
}
