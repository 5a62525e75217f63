package program

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func act(wd Weekday, title string, completed bool) Activity {
	return Activity{Weekday: wd, Title: title, Completed: completed}
}

func TestCollectIncomplete_FiltersCompletedAndNotYetDue(t *testing.T) {
	p := Program{
		14: {act(Monday, "Run", false), act(Tuesday, "Stretch", true)},
		15: {act(Wednesday, "Swim", true)},
		16: {act(Monday, "Walk", false), act(Friday, "Bike", false)},
	}

	backlog, err := CollectIncomplete(p, time.Date(2024, time.April, 15, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	items := backlog.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Run", items[0].Title)
	assert.Equal(t, date(2024, time.April, 1), items[0].ResolvedDate)
}

func TestCollectIncomplete_SortsByResolvedDate(t *testing.T) {
	p := Program{
		15: {act(Tuesday, "C", false)},
		14: {act(Friday, "B", false), act(Monday, "A", false)},
		16: {act(Sunday, "D", false)},
	}

	backlog, err := CollectIncomplete(p, date(2024, time.April, 30))
	require.NoError(t, err)

	var titles []string
	var prev time.Time
	for _, a := range backlog.Items() {
		titles = append(titles, a.Title)
		assert.False(t, a.Completed)
		assert.False(t, a.ResolvedDate.Before(prev), "backlog must be ascending")
		assert.True(t, a.ResolvedDate.Before(date(2024, time.April, 30)))
		prev = a.ResolvedDate
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, titles)
}

func TestCollectIncomplete_TiesKeepListOrder(t *testing.T) {
	p := Program{
		14: {act(Monday, "first", false), act(Monday, "second", false)},
	}

	backlog, err := CollectIncomplete(p, date(2024, time.April, 10))
	require.NoError(t, err)

	first, _ := backlog.Pop()
	second, _ := backlog.Pop()
	assert.Equal(t, "first", first.Title)
	assert.Equal(t, "second", second.Title)
}

func TestCollectIncomplete_InvalidWeekday(t *testing.T) {
	p := Program{14: {act("MONDAYS", "x", false)}}

	_, err := CollectIncomplete(p, date(2024, time.April, 10))
	assert.ErrorIs(t, err, ErrInvalidWeekday)
}

func TestCollectIncomplete_EmptyProgram(t *testing.T) {
	backlog, err := CollectIncomplete(Program{}, date(2024, time.April, 10))
	require.NoError(t, err)
	assert.Zero(t, backlog.Len())
}

func TestBacklog_PopIsDestructive(t *testing.T) {
	b := NewBacklog(act(Monday, "a", false), act(Tuesday, "b", false))

	front, ok := b.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", front.Title)
	assert.Equal(t, 2, b.Len())

	got, ok := b.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", got.Title)

	got, ok = b.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", got.Title)

	_, ok = b.Pop()
	assert.False(t, ok)
	assert.Zero(t, b.Len())
	assert.Nil(t, b.Items())
}

func TestBacklog_Nil(t *testing.T) {
	var b *Backlog
	assert.Zero(t, b.Len())
	_, ok := b.Pop()
	assert.False(t, ok)
	_, ok = b.Peek()
	assert.False(t, ok)
}

func TestBacklog_ItemsIsACopy(t *testing.T) {
	b := NewBacklog(act(Monday, "a", false))
	items := b.Items()
	items[0].Title = "changed"

	front, _ := b.Peek()
	assert.Equal(t, "a", front.Title)
}
