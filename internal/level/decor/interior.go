package decor

import "islandgen/internal/level/terrain"

// Interior reports whether every cell within Chebyshev distance radius of p (p itself excluded)
// exists and holds target. Cells outside the grid count as mismatches.
func Interior(g *terrain.Grid, p terrain.Point, target terrain.Marker, radius int) bool {
	for i := -radius; i <= radius; i++ {
		for j := -radius; j <= radius; j++ {
			if i == 0 && j == 0 {
				continue
			}
			m, ok := g.Lookup(p.Row+i, p.Col+j)
			if !ok || m != target {
				return false
			}
		}
	}
	return true
}

// Spaced reports whether no placement in placed lies strictly closer than minSpacing to anchor.
func Spaced(placed []Placement, anchor Vec2, minSpacing float64) bool {
	for _, pl := range placed {
		if Distance(pl.Anchor, anchor) < minSpacing {
			return false
		}
	}
	return true
}
