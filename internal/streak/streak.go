// Package streak turns a user's daily activity log into calendar statistics
// and the week grid the profile page renders.
//
// Everything here is pure: "today" is always passed in, never read from a
// clock, and dates are compared as plain calendar days (YYYY-MM-DD) with no
// timezone arithmetic.
package streak

import (
	"math"
	"sort"
	"time"

	"github.com/sakif/edtech-platform/internal/model"
)

// DateLayout is the format of StreakEntry.Date.
const DateLayout = "2006-01-02"

// Stats summarises an activity log relative to a given day.
type Stats struct {
	TotalActiveDays      int     `json:"totalActiveDays"`
	CurrentStreak        int     `json:"currentStreak"`
	LongestStreak        int     `json:"longestStreak"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

// Calendar answers "was the user active on this day?".
type Calendar struct {
	active map[string]struct{}
}

// NewCalendar indexes entries by date. An entry counts as active even with
// an empty activity list; entries with unparseable dates are dropped.
func NewCalendar(entries []model.StreakEntry) *Calendar {
	c := &Calendar{active: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		d, err := time.Parse(DateLayout, e.Date)
		if err != nil {
			continue
		}
		c.active[d.Format(DateLayout)] = struct{}{}
	}
	return c
}

// IsActive reports whether day's calendar date appears in the log.
func (c *Calendar) IsActive(day time.Time) bool {
	_, ok := c.active[day.Format(DateLayout)]
	return ok
}

// Compute returns the statistics for entries as seen on today.
func Compute(entries []model.StreakEntry, today time.Time) Stats {
	cal := NewCalendar(entries)
	today = Day(today)

	stats := Stats{TotalActiveDays: len(cal.active)}

	for d := today; cal.IsActive(d); d = d.AddDate(0, 0, -1) {
		stats.CurrentStreak++
	}

	stats.LongestStreak = cal.longestRun()

	inYear := 0
	for key := range cal.active {
		if d, _ := time.Parse(DateLayout, key); d.Year() == today.Year() {
			inYear++
		}
	}
	stats.CompletionPercentage = math.Round(float64(inYear)/float64(DaysInYear(today.Year()))*1000) / 10

	return stats
}

func (c *Calendar) longestRun() int {
	days := make([]time.Time, 0, len(c.active))
	for key := range c.active {
		d, _ := time.Parse(DateLayout, key)
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 0, 0
	for i, d := range days {
		if i > 0 && days[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}

// Day truncates t to midnight UTC of its own calendar date, so two times on
// the same wall-clock day always compare equal.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysInYear is 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}
