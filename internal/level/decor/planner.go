package decor

import (
	"fmt"

	"islandgen/internal/level/terrain"
)

// rule is one row of a decision table. Rows are tried top to bottom; each row draws its own
// random number and the first row whose conditions all hold wins.
type rule struct {
	category Category
	target   terrain.Marker
	chance   func(Rules) float64
	spaced   bool
}

var groundRules = []rule{
	{category: House, target: terrain.Ground, chance: func(r Rules) float64 { return r.HouseChance }, spaced: true},
}

// Decals are always tried before trees.
var grassRules = []rule{
	{category: GrassDecal, target: terrain.Grass, chance: func(r Rules) float64 { return r.DecalChance }},
	{category: Tree, target: terrain.Grass, chance: func(r Rules) float64 { return r.TreeChance }, spaced: true},
}

type Planner struct {
	Rules    Rules
	Rand     Rand
	ToWorld  GridToWorld
	Variants VariantPicker
}

// Run classifies every cell of s.Upscaled in row-major order, filling the layer grids and
// appending placements to the session.
func (p *Planner) Run(s *Session) error {
	if s == nil || s.Upscaled == nil {
		return fmt.Errorf("planner: session has no upscaled grid")
	}
	if p.Rand == nil {
		return fmt.Errorf("planner: nil random source")
	}
	g := s.Upscaled
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			pt := terrain.Point{Row: r, Col: c}
			switch g.At(r, c) {
			case terrain.Ground:
				s.GroundLayer.Set(r, c, terrain.Ground)
				underlay(s.GrassLayer, pt)
				p.decide(s, pt, groundRules)
			case terrain.Grass:
				s.GrassLayer.Set(r, c, terrain.Grass)
				p.decide(s, pt, grassRules)
			}
		}
	}
	return nil
}

// underlay paints grass under the 3x3 block around a ground cell.
func underlay(layer *terrain.Grid, pt terrain.Point) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			layer.SetClamped(pt.Row+dr, pt.Col+dc, terrain.Grass)
		}
	}
}

func (p *Planner) decide(s *Session, pt terrain.Point, table []rule) {
	for _, rl := range table {
		if p.Rand.Float64() >= rl.chance(p.Rules) {
			continue
		}
		if !Interior(s.Upscaled, pt, rl.target, p.Rules.InteriorRadius) {
			continue
		}
		x, y := p.anchorFn()(pt.Row, pt.Col)
		anchor := Vec2{X: x, Y: y}
		if rl.spaced && !Spaced(s.tracked(rl.category), anchor, p.Rules.MinSpacing) {
			continue
		}
		pl := Placement{Category: rl.category, Cell: pt, Anchor: anchor}
		if p.Variants != nil {
			pl.Variant = p.Variants.Pick(rl.category, anchor)
		}
		s.record(pl)
		return
	}
}

func (p *Planner) anchorFn() GridToWorld {
	if p.ToWorld == nil {
		return Linear(1, 0)
	}
	return p.ToWorld
}
