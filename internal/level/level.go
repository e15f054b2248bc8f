// Package level runs one island generation pass: quadrant generation, stitching, upscaling and
// decoration planning.
package level

import (
	"fmt"
	"time"

	"islandgen/internal/level/compose"
	"islandgen/internal/level/decor"
	"islandgen/internal/level/terrain"
)

// QuadrantInfo records how a quadrant was seeded.
type QuadrantInfo struct {
	Slot     compose.Slot
	Wanderer terrain.Point
	Seeker   terrain.Point
}

// Level is the finished output of a pass, ready for a renderer.
type Level struct {
	Pass  uint64
	Seed  int64
	Size  int
	Scale int

	Quadrants []QuadrantInfo

	Composite *terrain.Grid
	Upscaled  *terrain.Grid
	Ground    *terrain.Grid
	Grass     *terrain.Grid

	Placements []decor.Placement

	CreatedAt time.Time
	Elapsed   time.Duration
}

// Counts returns the number of placements per category.
func (l *Level) Counts() map[decor.Category]int {
	out := make(map[decor.Category]int, len(decor.Categories))
	for _, c := range decor.Categories {
		out[c] = 0
	}
	for _, p := range l.Placements {
		out[p.Category]++
	}
	return out
}

// RawQuadrant is the unparsed generator output for one slot.
type RawQuadrant struct {
	Slot     compose.Slot
	Lines    []string
	Wanderer terrain.Point
	Seeker   terrain.Point
}

// Assemble parses, stitches and upscales four raw quadrants and runs the planner over the result.
func Assemble(raw []RawQuadrant, size, scale int, p *decor.Planner) (*decor.Session, error) {
	quads := make([]compose.Quadrant, 0, len(raw))
	for _, rq := range raw {
		g, err := compose.ParseQuadrant(rq.Slot, rq.Lines, size)
		if err != nil {
			return nil, err
		}
		quads = append(quads, compose.Quadrant{Slot: rq.Slot, Grid: g, Wanderer: rq.Wanderer, Seeker: rq.Seeker})
	}
	set, err := compose.SetOf(quads)
	if err != nil {
		return nil, err
	}
	composite, err := compose.Stitch(set)
	if err != nil {
		return nil, err
	}
	upscaled, err := compose.Upscale(composite, scale)
	if err != nil {
		return nil, err
	}
	sess := decor.NewSession(composite, upscaled)
	if err := p.Run(sess); err != nil {
		return nil, fmt.Errorf("plan decorations: %w", err)
	}
	return sess, nil
}
