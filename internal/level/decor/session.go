package decor

import "islandgen/internal/level/terrain"

// Session is the transient state of one generation pass.
type Session struct {
	Composite *terrain.Grid
	Upscaled  *terrain.Grid

	GroundLayer *terrain.Grid
	GrassLayer  *terrain.Grid

	Houses []Placement
	Trees  []Placement

	// Placements holds every decision in scan order.
	Placements []Placement
}

func NewSession(composite, upscaled *terrain.Grid) *Session {
	return &Session{
		Composite:   composite,
		Upscaled:    upscaled,
		GroundLayer: terrain.NewGrid(upscaled.Rows(), upscaled.Cols()),
		GrassLayer:  terrain.NewGrid(upscaled.Rows(), upscaled.Cols()),
	}
}

// tracked returns the spacing list for cat; decals are not tracked.
func (s *Session) tracked(cat Category) []Placement {
	switch cat {
	case House:
		return s.Houses
	case Tree:
		return s.Trees
	}
	return nil
}

func (s *Session) record(pl Placement) {
	switch pl.Category {
	case House:
		s.Houses = append(s.Houses, pl)
	case Tree:
		s.Trees = append(s.Trees, pl)
	}
	s.Placements = append(s.Placements, pl)
}

// Counts returns the number of placements per category.
func (s *Session) Counts() map[Category]int {
	out := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		out[c] = 0
	}
	for _, pl := range s.Placements {
		out[pl.Category]++
	}
	return out
}
