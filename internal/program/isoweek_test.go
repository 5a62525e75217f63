package program

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekNumberToDate(t *testing.T) {
	tests := []struct {
		name    string
		week    int
		weekday string
		year    int
		want    time.Time
	}{
		{"monday of week 14 2024", 14, "MONDAY", 2024, date(2024, time.April, 1)},
		{"friday of week 16 2024", 16, "FRIDAY", 2024, date(2024, time.April, 19)},
		{"sunday of week 1 2024", 1, "SUNDAY", 2024, date(2024, time.January, 7)},
		{"week 1 starts in previous year", 1, "MONDAY", 2026, date(2025, time.December, 29)},
		{"week 53 spills into next year", 53, "FRIDAY", 2020, date(2021, time.January, 1)},
		{"week 52 2023", 52, "SUNDAY", 2023, date(2023, time.December, 31)},
		{"lower case weekday", 14, "wednesday", 2024, date(2024, time.April, 3)},
		{"mixed case weekday", 14, "Thursday", 2024, date(2024, time.April, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WeekNumberToDateIn(tt.week, tt.weekday, tt.year, time.UTC)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got.Format(DateLayout), tt.want.Format(DateLayout))
		})
	}
}

func TestWeekNumberToDate_InvalidWeekday(t *testing.T) {
	for _, name := range []string{"MONDAYS", "", "Mon", "funday"} {
		_, err := WeekNumberToDateIn(14, name, 2024, time.UTC)
		assert.ErrorIs(t, err, ErrInvalidWeekday, "weekday %q", name)
	}
}

func TestWeekNumberToDate_UsesLocalZone(t *testing.T) {
	got, err := WeekNumberToDate(14, "MONDAY", 2024)
	require.NoError(t, err)
	assert.Equal(t, time.Local, got.Location())
	assert.Equal(t, "2024-04-01", got.Format(DateLayout))
}

func TestISOWeekRoundTrip(t *testing.T) {
	for year := 2015; year <= 2032; year++ {
		_, lastWeek := date(year, time.December, 28).ISOWeek()
		for week := 1; week <= lastWeek; week++ {
			for _, wd := range Weekdays {
				d, err := WeekNumberToDateIn(week, string(wd), year, time.UTC)
				require.NoError(t, err)
				require.Equal(t, week, DateToISOWeek(d), "year %d week %d %s", year, week, wd)
				require.Equal(t, wd, WeekdayOf(d))
			}
		}
	}
}

func TestDateToISOWeek(t *testing.T) {
	assert.Equal(t, 16, DateToISOWeek(date(2024, time.April, 15)))
	assert.Equal(t, 1, DateToISOWeek(date(2024, time.December, 30)))
	assert.Equal(t, 53, DateToISOWeek(date(2021, time.January, 3)))
}

func TestParseWeekday(t *testing.T) {
	wd, err := ParseWeekday(" saturday ")
	require.NoError(t, err)
	assert.Equal(t, Saturday, wd)

	_, err = ParseWeekday("samedi")
	assert.ErrorIs(t, err, ErrInvalidWeekday)
}

func TestStartOfWeek(t *testing.T) {
	assert.Equal(t, date(2024, time.April, 15), StartOfWeek(date(2024, time.April, 21)))
	assert.Equal(t, date(2024, time.April, 15), StartOfWeek(date(2024, time.April, 15)))
	assert.Equal(t, date(2024, time.April, 15), StartOfWeek(time.Date(2024, time.April, 17, 23, 59, 0, 0, time.UTC)))
}
