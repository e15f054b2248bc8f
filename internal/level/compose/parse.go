package compose

import (
	"bufio"
	"io"
	"strings"

	"islandgen/internal/level/terrain"
)

// Slot names one of the four quadrants.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
	SlotC Slot = "C"
	SlotD Slot = "D"
)

// Slots lists the quadrants in generation order.
var Slots = []Slot{SlotA, SlotB, SlotC, SlotD}

func (s Slot) Valid() bool {
	switch s {
	case SlotA, SlotB, SlotC, SlotD:
		return true
	}
	return false
}

// Quadrant is a parsed quadrant grid plus the anchors that seeded its generation.
type Quadrant struct {
	Slot     Slot
	Grid     *terrain.Grid
	Wanderer terrain.Point
	Seeker   terrain.Point
}

// MarkerFor maps a generator character to a terrain marker. The generator writes '1' for path
// (Ground) and '2' for ground regions (Grass); terrain.Grid.String uses marker values instead.
func MarkerFor(ch byte) terrain.Marker {
	switch ch {
	case '0':
		return terrain.Empty
	case '1':
		return terrain.Ground
	default:
		return terrain.Grass
	}
}

// ParseQuadrant converts size lines of size characters into a grid. Any other shape is rejected
// with ErrMalformedQuadrant.
func ParseQuadrant(slot Slot, lines []string, size int) (*terrain.Grid, error) {
	if size <= 0 {
		return nil, malformed(slot, -1, "size must be > 0, got %d", size)
	}
	if len(lines) != size {
		return nil, malformed(slot, -1, "got %d rows want %d", len(lines), size)
	}
	g := terrain.NewSquare(size)
	for r, line := range lines {
		if len(line) != size {
			return nil, malformed(slot, r, "got %d columns want %d", len(line), size)
		}
		for c := 0; c < size; c++ {
			g.Set(r, c, MarkerFor(line[c]))
		}
	}
	return g, nil
}

// ReadLines reads a generator output file. Carriage returns and trailing blank lines are dropped.
func ReadLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
