package terrain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Grid is a rectangular row-major marker matrix. Every cell starts as Empty.
type Grid struct {
	rows  int
	cols  int
	cells []Marker
}

func NewGrid(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]Marker, rows*cols),
	}
}

// NewSquare returns an Empty side×side grid.
func NewSquare(side int) *Grid { return NewGrid(side, side) }

// FromCells wraps a copy of cells; len(cells) must equal rows*cols.
func FromCells(rows, cols int, cells []Marker) (*Grid, bool) {
	if rows < 0 || cols < 0 || len(cells) != rows*cols {
		return nil, false
	}
	g := NewGrid(rows, cols)
	copy(g.cells, cells)
	return g, true
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

func (g *Grid) index(r, c int) int {
	return c + r*g.cols
}

func (g *Grid) InBounds(r, c int) bool {
	return r >= 0 && c >= 0 && r < g.rows && c < g.cols
}

// At panics on out-of-range access like a slice index would.
func (g *Grid) At(r, c int) Marker {
	return g.cells[g.index(r, c)]
}

func (g *Grid) Set(r, c int, m Marker) {
	g.cells[g.index(r, c)] = m
}

// Lookup reports the marker at (r, c) and whether the cell exists.
func (g *Grid) Lookup(r, c int) (Marker, bool) {
	if !g.InBounds(r, c) {
		return Empty, false
	}
	return g.cells[g.index(r, c)], true
}

// SetClamped writes m at (r, c) and silently ignores coordinates outside the grid.
func (g *Grid) SetClamped(r, c int, m Marker) bool {
	if !g.InBounds(r, c) {
		return false
	}
	g.cells[g.index(r, c)] = m
	return true
}

func (g *Grid) Fill(m Marker) {
	for i := range g.cells {
		g.cells[i] = m
	}
}

// Cells returns a copy of the row-major cell data.
func (g *Grid) Cells() []Marker {
	out := make([]Marker, len(g.cells))
	copy(out, g.cells)
	return out
}

func (g *Grid) Clone() *Grid {
	out := NewGrid(g.rows, g.cols)
	copy(out.cells, g.cells)
	return out
}

func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.rows != o.rows || g.cols != o.cols {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Count returns how many cells hold m.
func (g *Grid) Count(m Marker) int {
	n := 0
	for _, v := range g.cells {
		if v == m {
			n++
		}
	}
	return n
}

// Digest is a stable hex sha256 over the dimensions and cells.
func (g *Grid) Digest() string {
	h := sha256.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:4], uint32(g.rows))
	binary.LittleEndian.PutUint32(dims[4:8], uint32(g.cols))
	h.Write(dims[:])
	buf := make([]byte, len(g.cells))
	for i, v := range g.cells {
		buf[i] = byte(v)
	}
	h.Write(buf)
	return hex.EncodeToString(h.Sum(nil))
}

// String renders each cell as its marker value (0 Empty, 1 Grass, 2 Ground), one line per row.
// This is the LEVEL row encoding. It is not the quadrant generator encoding, where '1' is Ground,
// so String output must not be fed back to compose.ParseQuadrant.
func (g *Grid) String() string {
	b := make([]byte, 0, g.rows*(g.cols+1))
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			b = append(b, '0'+byte(g.At(r, c)))
		}
		b = append(b, '\n')
	}
	return string(b)
}
