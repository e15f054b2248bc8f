package compose

import (
	"fmt"

	"islandgen/internal/level/terrain"
)

// placement is the fixed quadrant layout of the composite grid, in size units:
//
//	B C
//	A D
var placement = []struct {
	slot     Slot
	rowBlock int
	colBlock int
}{
	{SlotB, 0, 0},
	{SlotC, 0, 1},
	{SlotA, 1, 0},
	{SlotD, 1, 1},
}

// Offset returns the composite (row, col) origin of a quadrant of the given size.
func Offset(slot Slot, size int) (int, int, bool) {
	for _, p := range placement {
		if p.slot == slot {
			return p.rowBlock * size, p.colBlock * size, true
		}
	}
	return 0, 0, false
}

// Set holds one grid per quadrant slot.
type Set struct {
	A, B, C, D *terrain.Grid
}

func (s Set) get(slot Slot) *terrain.Grid {
	switch slot {
	case SlotA:
		return s.A
	case SlotB:
		return s.B
	case SlotC:
		return s.C
	case SlotD:
		return s.D
	}
	return nil
}

// SetOf collects parsed quadrants by slot. Every slot must appear exactly once.
func SetOf(quads []Quadrant) (Set, error) {
	var s Set
	seen := map[Slot]bool{}
	for _, q := range quads {
		if !q.Slot.Valid() {
			return Set{}, fmt.Errorf("unknown quadrant slot %q", q.Slot)
		}
		if seen[q.Slot] {
			return Set{}, fmt.Errorf("duplicate quadrant slot %s", q.Slot)
		}
		seen[q.Slot] = true
		switch q.Slot {
		case SlotA:
			s.A = q.Grid
		case SlotB:
			s.B = q.Grid
		case SlotC:
			s.C = q.Grid
		case SlotD:
			s.D = q.Grid
		}
	}
	for _, slot := range Slots {
		if !seen[slot] {
			return Set{}, fmt.Errorf("missing quadrant slot %s", slot)
		}
	}
	return s, nil
}

// Stitch places the four quadrants into one grid of side 2*size using the B C / A D layout.
func Stitch(s Set) (*terrain.Grid, error) {
	if s.A == nil {
		return nil, malformed(SlotA, -1, "missing grid")
	}
	size := s.A.Rows()
	for _, slot := range Slots {
		g := s.get(slot)
		if g == nil {
			return nil, malformed(slot, -1, "missing grid")
		}
		if g.Rows() != size || g.Cols() != size {
			return nil, malformed(slot, -1, "got %dx%d want %dx%d", g.Rows(), g.Cols(), size, size)
		}
	}

	out := terrain.NewSquare(2 * size)
	for _, p := range placement {
		src := s.get(p.slot)
		r0 := p.rowBlock * size
		c0 := p.colBlock * size
		for r := 0; r < size; r++ {
			for c := 0; c < size; c++ {
				out.Set(r0+r, c0+c, src.At(r, c))
			}
		}
	}
	return out, nil
}
