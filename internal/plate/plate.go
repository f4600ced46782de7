// Package plate provides the grid and index arithmetic for multi-well plates.
package plate

import (
	"fmt"
	"strconv"
	"strings"
)

// Grid holds the plate dimensions
type Grid struct {
	Rows    int
	Columns int
}

// Size returns the number of well positions in the grid
func (g Grid) Size() int {
	return g.Rows * g.Columns
}

// Contains reports whether pos lies inside the grid
func (g Grid) Contains(pos Position) bool {
	return pos.Row >= 0 && pos.Row < g.Rows && pos.Column >= 0 && pos.Column < g.Columns
}

// Position addresses a well by zero-based row and column
type Position struct {
	Row    int
	Column int
}

// FieldCounts holds the number of fields of view per well, indexed [row][column].
// A count of 0 means the well exists but has no acquired image.
type FieldCounts [][]int

// Uniform returns a rows x cols grid with n fields in every well
func Uniform(rows, cols, n int) FieldCounts {
	fc := make(FieldCounts, rows)
	for r := range fc {
		fc[r] = make([]int, cols)
		for c := range fc[r] {
			fc[r][c] = n
		}
	}
	return fc
}

// Parse reads a field count grid written as rows separated by ';' and
// columns separated by ',', e.g. "1,1;1,0".
func Parse(s string) (FieldCounts, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty field count grid")
	}

	rows := strings.Split(s, ";")
	fc := make(FieldCounts, 0, len(rows))
	for r, row := range rows {
		cells := strings.Split(row, ",")
		counts := make([]int, 0, len(cells))
		for c, cell := range cells {
			n, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: invalid field count %q", r, c, strings.TrimSpace(cell))
			}
			counts = append(counts, n)
		}
		fc = append(fc, counts)
	}

	if _, err := fc.Grid(); err != nil {
		return nil, err
	}
	return fc, nil
}

// Grid validates the counts and returns the grid they describe.
// The grid must be non-empty, rectangular and free of negative counts.
func (fc FieldCounts) Grid() (Grid, error) {
	if len(fc) == 0 {
		return Grid{}, fmt.Errorf("field count grid has no rows")
	}
	cols := len(fc[0])
	if cols == 0 {
		return Grid{}, fmt.Errorf("field count grid has no columns")
	}
	for r, row := range fc {
		if len(row) != cols {
			return Grid{}, fmt.Errorf("row %d has %d columns, want %d", r, len(row), cols)
		}
		for c, n := range row {
			if n < 0 {
				return Grid{}, fmt.Errorf("row %d column %d: negative field count %d", r, c, n)
			}
		}
	}
	return Grid{Rows: len(fc), Columns: cols}, nil
}

// At returns the field count at pos, or 0 when pos is outside the grid
func (fc FieldCounts) At(pos Position) int {
	if pos.Row < 0 || pos.Row >= len(fc) {
		return 0
	}
	row := fc[pos.Row]
	if pos.Column < 0 || pos.Column >= len(row) {
		return 0
	}
	return row[pos.Column]
}

// Set stores n at pos
func (fc FieldCounts) Set(pos Position, n int) error {
	if pos.Row < 0 || pos.Row >= len(fc) || pos.Column < 0 || pos.Column >= len(fc[pos.Row]) {
		return fmt.Errorf("position (%d,%d) outside the plate", pos.Row, pos.Column)
	}
	fc[pos.Row][pos.Column] = n
	return nil
}

// Total returns the total number of fields of view on the plate
func (fc FieldCounts) Total() int {
	total := 0
	for _, row := range fc {
		for _, n := range row {
			total += n
		}
	}
	return total
}

// Clone returns a deep copy
func (fc FieldCounts) Clone() FieldCounts {
	out := make(FieldCounts, len(fc))
	for r, row := range fc {
		out[r] = append([]int(nil), row...)
	}
	return out
}

// String formats the counts in the form accepted by Parse
func (fc FieldCounts) String() string {
	rows := make([]string, len(fc))
	for r, row := range fc {
		cells := make([]string, len(row))
		for c, n := range row {
			cells[c] = strconv.Itoa(n)
		}
		rows[r] = strings.Join(cells, ",")
	}
	return strings.Join(rows, ";")
}

// Slot is one entry of the row-major series enumeration
type Slot struct {
	Series   int
	Position Position
	Fields   int
}

// Slots enumerates every grid position row-major (row outer, column inner).
// The series index advances for every position, including wells without
// fields of view.
func Slots(fc FieldCounts) []Slot {
	var slots []Slot
	series := 0
	for r, row := range fc {
		for c, n := range row {
			slots = append(slots, Slot{
				Series:   series,
				Position: Position{Row: r, Column: c},
				Fields:   n,
			})
			series++
		}
	}
	return slots
}
