// Package anchors chooses the per-quadrant generation anchors so that the paths of
// neighbouring quadrants meet on their shared edges.
package anchors

import (
	"fmt"
	"strconv"
	"strings"

	"islandgen/internal/level/compose"
	"islandgen/internal/level/terrain"
)

// Intn is the integer random source; *math/rand.Rand satisfies it.
type Intn interface {
	Intn(n int) int
}

// Range is a half-open integer interval [Min, Max).
type Range struct {
	Min int
	Max int
}

func (r Range) pick(rng Intn) int {
	if r.Max-r.Min <= 1 {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min)
}

// Request is what the quadrant generator is invoked with.
type Request struct {
	Slot     compose.Slot
	Wanderer terrain.Point
	Seeker   terrain.Point
	Rows     int
	Cols     int
}

// Args renders the request in the generator's positional order.
func (r Request) Args() string {
	return fmt.Sprintf("%d,%d,%d,%d,%d,%d,%s",
		r.Wanderer.Row, r.Wanderer.Col, r.Seeker.Row, r.Seeker.Col, r.Rows, r.Cols, r.Slot)
}

// ParseArgs is the inverse of Args.
func ParseArgs(s string) (Request, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 7 {
		return Request{}, fmt.Errorf("anchors: want 7 comma-separated fields, got %d", len(parts))
	}
	var n [6]int
	for i := range n {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return Request{}, fmt.Errorf("anchors: field %d: %w", i+1, err)
		}
		n[i] = v
	}
	slot := compose.Slot(strings.TrimSpace(parts[6]))
	if !slot.Valid() {
		return Request{}, fmt.Errorf("anchors: unknown quadrant %q", parts[6])
	}
	return Request{
		Slot:     slot,
		Wanderer: terrain.Point{Row: n[0], Col: n[1]},
		Seeker:   terrain.Point{Row: n[2], Col: n[3]},
		Rows:     n[4],
		Cols:     n[5],
	}, nil
}

type Plan struct {
	Size     int
	Scale    int
	Requests []Request
}

// NewPlan draws a quadrant size and scale and derives the four anchor pairs:
//
//	B: bottom edge (shared with A's top) -> right edge (shared with C's left)
//	C: left edge -> bottom edge (shared with D's top)
//	A: bottom edge -> top edge
//	D: top edge -> bottom edge
func NewPlan(rng Intn, size, scale Range) (Plan, error) {
	if size.Min < 2 || size.Max < size.Min {
		return Plan{}, fmt.Errorf("anchors: invalid size range [%d,%d)", size.Min, size.Max)
	}
	if scale.Min < 1 || scale.Max < scale.Min {
		return Plan{}, fmt.Errorf("anchors: invalid scale range [%d,%d)", scale.Min, scale.Max)
	}
	n := size.pick(rng)
	s := scale.pick(rng)
	return Plan{Size: n, Scale: s, Requests: ForSize(rng, n)}, nil
}

// ForSize derives the anchor requests for a fixed quadrant size.
func ForSize(rng Intn, n int) []Request {
	edge := Range{Min: 0, Max: n - 1}
	last := n - 1

	bottomA := terrain.Point{Row: last, Col: edge.pick(rng)}
	topA := terrain.Point{Row: 0, Col: edge.pick(rng)}

	bottomB := terrain.Point{Row: last, Col: topA.Col}
	rightB := terrain.Point{Row: edge.pick(rng), Col: last}

	leftC := terrain.Point{Row: rightB.Row, Col: 0}
	bottomC := terrain.Point{Row: last, Col: edge.pick(rng)}

	topD := terrain.Point{Row: 0, Col: bottomC.Col}
	bottomD := terrain.Point{Row: last, Col: edge.pick(rng)}

	return []Request{
		{Slot: compose.SlotA, Wanderer: bottomA, Seeker: topA, Rows: n, Cols: n},
		{Slot: compose.SlotB, Wanderer: bottomB, Seeker: rightB, Rows: n, Cols: n},
		{Slot: compose.SlotC, Wanderer: leftC, Seeker: bottomC, Rows: n, Cols: n},
		{Slot: compose.SlotD, Wanderer: topD, Seeker: bottomD, Rows: n, Cols: n},
	}
}
