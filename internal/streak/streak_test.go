package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/edtech-platform/internal/model"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	require.NoError(t, err)
	return d
}

func entries(days ...string) []model.StreakEntry {
	out := make([]model.StreakEntry, len(days))
	for i, d := range days {
		out[i] = model.StreakEntry{Date: d, Activities: []string{"login"}}
	}
	return out
}

func fullYear(year int) []model.StreakEntry {
	var out []model.StreakEntry
	for d := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
		out = append(out, model.StreakEntry{Date: d.Format(DateLayout), Activities: []string{"login"}})
	}
	return out
}

// =========================================================================
// Compute
// =========================================================================

func TestCompute_SingleDayToday(t *testing.T) {
	stats := Compute(entries("2025-01-01"), date(t, "2025-01-01"))

	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.TotalActiveDays)
	assert.Equal(t, 1, stats.LongestStreak)
}

func TestCompute_Empty(t *testing.T) {
	stats := Compute(nil, date(t, "2025-06-01"))

	assert.Equal(t, 0, stats.TotalActiveDays)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 0, stats.LongestStreak)
	assert.Equal(t, 0.0, stats.CompletionPercentage)
}

func TestCompute_CurrentStreakZeroWhenTodayInactive(t *testing.T) {
	tests := []struct {
		name  string
		days  []string
		today string
	}{
		{"yesterday only", []string{"2025-03-09"}, "2025-03-10"},
		{"long run ending yesterday", []string{"2025-03-07", "2025-03-08", "2025-03-09"}, "2025-03-10"},
		{"future day only", []string{"2025-03-11"}, "2025-03-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := Compute(entries(tt.days...), date(t, tt.today))
			assert.Equal(t, 0, stats.CurrentStreak)
		})
	}
}

func TestCompute_CurrentAndLongest(t *testing.T) {
	log := entries(
		"2025-02-01", "2025-02-02", "2025-02-03", "2025-02-04", // run of 4
		"2025-02-10", "2025-02-11", // run of 2 ending today
	)
	stats := Compute(log, date(t, "2025-02-11"))

	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 4, stats.LongestStreak)
	assert.Equal(t, 6, stats.TotalActiveDays)
}

func TestCompute_IgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 1, Compute(entries("2025-01-01"), late).CurrentStreak)
}

func TestCompute_DuplicatesAndInvalidDates(t *testing.T) {
	log := []model.StreakEntry{
		{Date: "2025-01-01", Activities: []string{"login"}},
		{Date: "2025-01-01", Activities: []string{"practice"}},
		{Date: "not-a-date"},
		{Date: "2025-01-02"},
	}
	stats := Compute(log, date(t, "2025-01-02"))

	assert.Equal(t, 2, stats.TotalActiveDays)
	assert.Equal(t, 2, stats.CurrentStreak)
}

func TestCompute_FullYear(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{2023, 365},
		{2024, 366},
	}
	for _, tt := range tests {
		stats := Compute(fullYear(tt.year), time.Date(tt.year, 12, 31, 0, 0, 0, 0, time.UTC))

		assert.Equal(t, tt.want, stats.LongestStreak, "year %d", tt.year)
		assert.Equal(t, tt.want, stats.CurrentStreak, "year %d", tt.year)
		assert.Equal(t, 100.0, stats.CompletionPercentage, "year %d", tt.year)
	}
}

func TestCompute_CompletionRounding(t *testing.T) {
	// 1/365 = 0.2739...% → 0.3
	stats := Compute(entries("2025-05-05"), date(t, "2025-05-05"))
	assert.Equal(t, 0.3, stats.CompletionPercentage)

	// Activity from other years does not count toward this year.
	stats = Compute(entries("2024-05-05"), date(t, "2025-05-05"))
	assert.Equal(t, 0.0, stats.CompletionPercentage)
}

func TestCalendar_IsActive(t *testing.T) {
	cal := NewCalendar([]model.StreakEntry{{Date: "2025-04-01"}})

	assert.True(t, cal.IsActive(date(t, "2025-04-01")), "empty activity list still counts")
	assert.False(t, cal.IsActive(date(t, "2025-04-02")))
}

// =========================================================================
// BuildYearGrid
// =========================================================================

func TestBuildYearGrid_Shape(t *testing.T) {
	for year := 2019; year <= 2030; year++ {
		grid := BuildYearGrid(year)

		days := 0
		for _, row := range grid {
			require.Len(t, row, 7, "year %d", year)
			for _, cell := range row {
				if cell != nil {
					days++
				}
			}
		}
		assert.Equal(t, DaysInYear(year), days, "year %d", year)

		jan1 := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		col := int(jan1.Weekday())
		for i := 0; i < col; i++ {
			assert.Nil(t, grid[0][i], "year %d leading padding", year)
		}
		require.NotNil(t, grid[0][col])
		assert.True(t, grid[0][col].Equal(jan1), "year %d: Jan 1 in column %d", year, col)

		last := grid[len(grid)-1]
		dec31 := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
		end := int(dec31.Weekday())
		require.NotNil(t, last[end])
		assert.True(t, last[end].Equal(dec31))
		for i := end + 1; i < 7; i++ {
			assert.Nil(t, last[i], "year %d trailing padding", year)
		}
	}
}

func TestBuildYearGrid_EveryCellInItsWeekday(t *testing.T) {
	for _, row := range BuildYearGrid(2024) {
		for col, cell := range row {
			if cell != nil {
				assert.Equal(t, time.Weekday(col), cell.Weekday())
			}
		}
	}
}

func TestRender(t *testing.T) {
	grid := BuildYearGrid(2025) // Jan 1 2025 is a Wednesday
	cells := Render(grid, NewCalendar(entries("2025-01-02")))

	assert.Equal(t, Cell{}, cells[0][0])
	assert.Equal(t, Cell{Date: "2025-01-01"}, cells[0][3])
	assert.Equal(t, Cell{Date: "2025-01-02", Active: true}, cells[0][4])
}
