package wanderer

import (
	"github.com/zyedidia/generic/mapset"

	"islandgen/internal/level/terrain"
)

// carveGround collects the open regions away from the field edge and marks one of those covering
// more than the coverage share as Ground.
func carveGround(f *Field, rng Rand, coverage float64) {
	spots := groundSpots(f, coverage)
	if len(spots) == 0 {
		return
	}
	for _, p := range spots[rng.Intn(len(spots))] {
		f.set(p, Ground)
	}
}

func groundSpots(f *Field, coverage float64) [][]terrain.Point {
	var spots [][]terrain.Point
	visited := mapset.New[terrain.Point]()
	total := float64(f.Rows * f.Cols)
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			p := terrain.Point{Row: r, Col: c}
			if f.At(p) != Open || visited.Has(p) {
				continue
			}
			region := explore(f, p, visited)
			if len(region) > 0 && float64(len(region))/total > coverage {
				spots = append(spots, region)
			}
		}
	}
	return spots
}

// explore is a BFS over open interior cells starting from the neighbours of start.
func explore(f *Field, start terrain.Point, visited mapset.Set[terrain.Point]) []terrain.Point {
	queue := []terrain.Point{start}
	var region []terrain.Point
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, m := range moves(cur) {
			if visited.Has(m) || !f.within(m) || f.At(m) != Open || onBorder(f, m) {
				continue
			}
			visited.Put(m)
			queue = append(queue, m)
			region = append(region, m)
		}
	}
	return region
}

func onBorder(f *Field, p terrain.Point) bool {
	return p.Row < 1 || p.Col < 1 || p.Row > f.Rows-2 || p.Col > f.Cols-2
}
