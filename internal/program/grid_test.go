package program

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMonthGrid_April2024(t *testing.T) {
	grid := GenerateMonthGrid(date(2024, time.April, 15))

	require.Len(t, grid, 5)
	assert.Equal(t, date(2024, time.April, 1), grid[0][0])
	assert.Equal(t, date(2024, time.May, 5), grid[4][6])
}

func TestGenerateMonthGrid_ExactFourWeeks(t *testing.T) {
	// February 2021 starts on a Monday and ends on a Sunday.
	grid := GenerateMonthGrid(date(2021, time.February, 10))

	require.Len(t, grid, 4)
	assert.Equal(t, date(2021, time.February, 1), grid[0][0])
	assert.Equal(t, date(2021, time.February, 28), grid[3][6])
}

func TestGenerateMonthGrid_SixRows(t *testing.T) {
	// March 2026 starts on a Sunday and has 31 days.
	grid := GenerateMonthGrid(date(2026, time.March, 1))

	require.Len(t, grid, 6)
	assert.Equal(t, date(2026, time.February, 23), grid[0][0])
	assert.Equal(t, date(2026, time.April, 5), grid[5][6])
}

func TestGenerateMonthGrid_Properties(t *testing.T) {
	for year := 2020; year <= 2030; year++ {
		for month := time.January; month <= time.December; month++ {
			ref := time.Date(year, month, 17, 15, 30, 0, 0, time.UTC)
			grid := GenerateMonthGrid(ref)
			days := grid.Days()

			require.Zero(t, len(days)%7)
			require.Equal(t, time.Monday, days[0].Weekday(), "%d-%02d", year, month)
			require.Equal(t, time.Sunday, days[len(days)-1].Weekday(), "%d-%02d", year, month)

			seen := make(map[int]int)
			for i, d := range days {
				if i > 0 {
					require.Equal(t, days[i-1].AddDate(0, 0, 1), d, "days must be consecutive")
				}
				if d.Month() == month {
					seen[d.Day()]++
				}
			}

			lastDay := date(year, month+1, 0).Day()
			require.Len(t, seen, lastDay)
			for day, n := range seen {
				require.Equal(t, 1, n, "%d-%02d-%02d appears %d times", year, month, day, n)
			}
		}
	}
}

func TestGenerateMonthGrid_Deterministic(t *testing.T) {
	a := GenerateMonthGrid(date(2024, time.September, 1))
	b := GenerateMonthGrid(date(2024, time.September, 30))
	assert.Equal(t, a, b)
}
