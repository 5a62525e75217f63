package program

import (
	"fmt"
	"sort"
	"time"
)

// Backlog is the queue of overdue, incomplete activities for one resolution
// pass. Popped items are gone for the rest of the pass.
type Backlog struct {
	items []Activity
}

// NewBacklog builds a queue from already-ordered activities.
func NewBacklog(items ...Activity) *Backlog {
	buf := make([]Activity, len(items))
	copy(buf, items)
	return &Backlog{items: buf}
}

// Len returns the number of queued activities. A nil backlog is empty.
func (b *Backlog) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Peek returns the front activity without removing it.
func (b *Backlog) Peek() (Activity, bool) {
	if b.Len() == 0 {
		return Activity{}, false
	}
	return b.items[0], true
}

// Pop removes and returns the front activity.
func (b *Backlog) Pop() (Activity, bool) {
	if b.Len() == 0 {
		return Activity{}, false
	}
	front := b.items[0]
	b.items[0] = Activity{}
	b.items = b.items[1:]
	return front, true
}

// Items returns a copy of the remaining queue.
func (b *Backlog) Items() []Activity {
	if b.Len() == 0 {
		return nil
	}
	out := make([]Activity, len(b.items))
	copy(out, b.items)
	return out
}

// CollectIncomplete gathers every activity that is not completed and whose
// date falls before the start of asOf's day. Dates are resolved against
// asOf's year and location. The queue is ordered by resolved date; equal
// dates keep week order and then list order.
func CollectIncomplete(p Program, asOf time.Time) (*Backlog, error) {
	today := StartOfDay(asOf)
	var overdue []Activity

	for _, week := range p.WeekNumbers() {
		for _, a := range p[week] {
			if a.Completed {
				continue
			}
			date, err := WeekNumberToDateIn(week, string(a.Weekday), asOf.Year(), asOf.Location())
			if err != nil {
				return nil, fmt.Errorf("resolving %s %s: %w", WeekKey(week), a.Weekday, err)
			}
			if !date.Before(today) {
				continue
			}
			a.ResolvedDate = date
			overdue = append(overdue, a)
		}
	}

	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].ResolvedDate.Before(overdue[j].ResolvedDate)
	})
	return &Backlog{items: overdue}, nil
}
