package streak

import "time"

// BuildYearGrid lays out every day of year as week rows of seven cells,
// Sunday first. The first row is padded with leading nils so January 1 sits
// under its weekday; the last row is padded with trailing nils.
func BuildYearGrid(year int) [][]*time.Time {
	first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	cells := make([]*time.Time, int(first.Weekday()), 7*54)
	for d := first; d.Year() == year; d = d.AddDate(0, 0, 1) {
		day := d
		cells = append(cells, &day)
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	rows := make([][]*time.Time, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		rows = append(rows, cells[i:i+7])
	}
	return rows
}

// Cell is one grid position as sent to clients. Date is empty for padding.
type Cell struct {
	Date   string `json:"date,omitempty"`
	Active bool   `json:"active"`
}

// Render converts a grid into cells, marking the days cal reports active.
func Render(grid [][]*time.Time, cal *Calendar) [][]Cell {
	out := make([][]Cell, len(grid))
	for i, row := range grid {
		out[i] = make([]Cell, len(row))
		for j, d := range row {
			if d == nil {
				continue
			}
			out[i][j] = Cell{Date: d.Format(DateLayout), Active: cal.IsActive(*d)}
		}
	}
	return out
}
