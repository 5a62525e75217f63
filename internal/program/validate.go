package program

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Validation messages. They are returned verbatim to API clients.
const (
	MsgNotObject        = "Program must be a non-null object."
	MsgNotThreeWeeks    = "Program must contain exactly three weeks."
	MsgNotConsecutive   = "Week numbers must be consecutive."
	MsgNotFirstFullWeek = "The first week does not start on the first full week of its month."
	msgInvalidStructure = "Invalid activities structure in %s."
	msgFutureCompleted  = "Future activity in %s should not be marked as completed."
)

type weekEntry struct {
	key    string
	number int
	value  any
}

// Validate checks a decoded JSON value against the program rules. The
// checks run in a fixed order and the first failure is reported.
func Validate(v any, current time.Time) Result {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return invalid(MsgNotObject)
	}

	if len(obj) != ProgramWeeks {
		return invalid(MsgNotThreeWeeks)
	}

	weeks := make([]weekEntry, 0, len(obj))
	for key, value := range obj {
		n, err := ParseWeekKey(key)
		if err != nil {
			return invalid(MsgNotConsecutive)
		}
		weeks = append(weeks, weekEntry{key: key, number: n, value: value})
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].number < weeks[j].number })
	for i := 1; i < len(weeks); i++ {
		if weeks[i].number != weeks[i-1].number+1 {
			return invalid(MsgNotConsecutive)
		}
	}

	year := current.Year()
	loc := current.Location()
	if !startsOnFirstFullWeek(weeks[0].number, year, loc) {
		return invalid(MsgNotFirstFullWeek)
	}

	parsed := make(map[int][]Activity, len(weeks))
	for _, w := range weeks {
		acts, ok := activitiesOf(w.value)
		if !ok {
			return invalid(fmt.Sprintf(msgInvalidStructure, w.key))
		}
		parsed[w.number] = acts
	}

	today := StartOfDay(current)
	for _, w := range weeks {
		for _, a := range parsed[w.number] {
			if !a.Completed {
				continue
			}
			date, err := WeekNumberToDateIn(w.number, string(a.Weekday), year, loc)
			if err != nil {
				// unreachable after the structure check
				return invalid(fmt.Sprintf(msgInvalidStructure, w.key))
			}
			if date.After(today) {
				return invalid(fmt.Sprintf(msgFutureCompleted, w.key))
			}
		}
	}

	return valid()
}

// DecodeAndValidate parses submitted JSON, validates it and, when valid,
// returns the typed program.
func DecodeAndValidate(data []byte, current time.Time) (Program, Result) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&v); err != nil || dec.More() {
		return nil, invalid(MsgNotObject)
	}

	res := Validate(v, current)
	if !res.IsValid {
		return nil, res
	}

	p, err := ParseProgram(data)
	if err != nil {
		return nil, invalid(MsgNotObject)
	}
	return p, res
}

// startsOnFirstFullWeek reports whether ISO week's Monday is the first
// Monday on or after the 1st of the month that Monday falls in.
func startsOnFirstFullWeek(week, year int, loc *time.Location) bool {
	monday, err := WeekNumberToDateIn(week, string(Monday), year, loc)
	if err != nil {
		return false
	}
	first := StartOfMonth(monday)
	firstFull := StartOfWeek(first)
	if firstFull.Before(first) {
		firstFull = firstFull.AddDate(0, 0, 7)
	}
	return DateToISOWeek(firstFull) == DateToISOWeek(monday)
}

// activitiesOf converts one week's JSON value into activities, requiring an
// array of objects with a canonical weekday, a string title and a boolean
// completed flag.
func activitiesOf(v any) ([]Activity, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	acts := make([]Activity, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		name, ok := obj["weekday"].(string)
		if !ok || !Weekday(name).Valid() {
			return nil, false
		}
		title, ok := obj["title"].(string)
		if !ok {
			return nil, false
		}
		completed, ok := obj["completed"].(bool)
		if !ok {
			return nil, false
		}
		acts = append(acts, Activity{Weekday: Weekday(name), Title: title, Completed: completed})
	}
	return acts, true
}
