package wanderer

import (
	"fmt"
	"io"

	"islandgen/internal/level/terrain"
)

// Cell codes written to the quadrant file.
const (
	Open   byte = 0
	Path   byte = 1
	Ground byte = 2
)

// Field is the generator's working matrix.
type Field struct {
	Rows  int
	Cols  int
	cells []byte
}

func newField(rows, cols int) *Field {
	return &Field{Rows: rows, Cols: cols, cells: make([]byte, rows*cols)}
}

func (f *Field) within(p terrain.Point) bool {
	return p.Row >= 0 && p.Col >= 0 && p.Row < f.Rows && p.Col < f.Cols
}

func (f *Field) At(p terrain.Point) byte { return f.cells[p.Col+p.Row*f.Cols] }

func (f *Field) set(p terrain.Point, v byte) { f.cells[p.Col+p.Row*f.Cols] = v }

// Count returns the number of cells holding code v.
func (f *Field) Count(v byte) int {
	n := 0
	for _, c := range f.cells {
		if c == v {
			n++
		}
	}
	return n
}

// Lines renders one digit per cell.
func (f *Field) Lines() []string {
	out := make([]string, f.Rows)
	row := make([]byte, f.Cols)
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			row[c] = '0' + f.cells[c+r*f.Cols]
		}
		out[r] = string(row)
	}
	return out
}

func (f *Field) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, line := range f.Lines() {
		k, err := fmt.Fprintln(w, line)
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
