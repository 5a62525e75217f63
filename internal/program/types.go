// Package program holds the treatment program model and the reconciliation
// engine that maps a week-indexed program onto calendar dates.
package program

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Weekday is one of the seven canonical upper-case day names.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// Weekdays lists the canonical names in ISO order (Monday first).
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Week key bounds
const (
	WeekKeyPrefix = "week"
	MinWeek       = 1
	MaxWeek       = 53
	ProgramWeeks  = 3
)

// Activity is a single scheduled program day
type Activity struct {
	Weekday   Weekday `json:"weekday"`
	Title     string  `json:"title"`
	Completed bool    `json:"completed"`

	// ResolvedDate is derived from the week key and weekday; it is never
	// read from submitted input.
	ResolvedDate time.Time `json:"-"`
}

// MarshalJSON adds the resolved date as "date" when it is known.
func (a Activity) MarshalJSON() ([]byte, error) {
	type wire struct {
		Weekday   Weekday `json:"weekday"`
		Title     string  `json:"title"`
		Completed bool    `json:"completed"`
		Date      string  `json:"date,omitempty"`
	}
	w := wire{Weekday: a.Weekday, Title: a.Title, Completed: a.Completed}
	if !a.ResolvedDate.IsZero() {
		w.Date = a.ResolvedDate.Format(DateLayout)
	}
	return json.Marshal(w)
}

// Program maps an ISO week number to the activities scheduled in that week.
type Program map[int][]Activity

// WeekKey formats a week number as a program key ("week14").
func WeekKey(week int) string {
	return WeekKeyPrefix + strconv.Itoa(week)
}

// ParseWeekKey parses a "week<N>" key and checks N against MinWeek..MaxWeek.
func ParseWeekKey(key string) (int, error) {
	digits, ok := strings.CutPrefix(key, WeekKeyPrefix)
	if !ok || digits == "" {
		return 0, fmt.Errorf("week key %q: missing %q prefix", key, WeekKeyPrefix)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("week key %q: not a number", key)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("week key %q: %w", key, err)
	}
	if n < MinWeek || n > MaxWeek {
		return 0, fmt.Errorf("week key %q: out of range %d..%d", key, MinWeek, MaxWeek)
	}
	return n, nil
}

// WeekNumbers returns the program's week numbers in ascending order.
func (p Program) WeekNumbers() []int {
	weeks := make([]int, 0, len(p))
	for w := range p {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks
}

// MarshalJSON encodes the program with "week<N>" keys.
func (p Program) MarshalJSON() ([]byte, error) {
	out := make(map[string][]Activity, len(p))
	for w, acts := range p {
		if acts == nil {
			acts = []Activity{}
		}
		out[WeekKey(w)] = acts
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes "week<N>" keys and canonical weekday names. It does
// not apply the time-dependent rules of Validate.
func (p *Program) UnmarshalJSON(data []byte) error {
	var raw map[string][]Activity
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Program, len(raw))
	for key, acts := range raw {
		week, err := ParseWeekKey(key)
		if err != nil {
			return err
		}
		for _, a := range acts {
			if !a.Weekday.Valid() {
				return fmt.Errorf("%s: %w: %q", key, ErrInvalidWeekday, a.Weekday)
			}
		}
		out[week] = append(out[week], acts...)
	}
	*p = out
	return nil
}

// ParseProgram decodes a stored program without the time-dependent checks.
func ParseProgram(data []byte) (Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding program: %w", err)
	}
	return p, nil
}

// Result is the outcome of validating a submitted program
type Result struct {
	IsValid      bool   `json:"isValid"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

func valid() Result { return Result{IsValid: true} }

func invalid(msg string) Result { return Result{IsValid: false, ErrorMessage: msg} }

// Snapshot is an accepted program together with its verbatim JSON.
type Snapshot struct {
	ID         uuid.UUID
	Program    Program
	Raw        []byte
	AcceptedAt time.Time
}

// NewSnapshot stamps an accepted program with a fresh ID.
func NewSnapshot(p Program, raw []byte, acceptedAt time.Time) *Snapshot {
	buf := make([]byte, len(raw))
	copy(buf, raw)
	return &Snapshot{
		ID:         uuid.New(),
		Program:    p,
		Raw:        buf,
		AcceptedAt: acceptedAt,
	}
}
