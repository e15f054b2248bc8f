package compose

import (
	"fmt"

	"islandgen/internal/level/terrain"
)

// Upscale replicates every cell of g into a scale×scale block.
func Upscale(g *terrain.Grid, scale int) (*terrain.Grid, error) {
	if g == nil {
		return nil, fmt.Errorf("upscale: nil grid")
	}
	if scale < 1 {
		return nil, fmt.Errorf("upscale: scale must be >= 1, got %d", scale)
	}
	out := terrain.NewGrid(g.Rows()*scale, g.Cols()*scale)
	for i := 0; i < g.Rows(); i++ {
		for j := 0; j < g.Cols(); j++ {
			v := g.At(i, j)
			for r := i * scale; r < (i+1)*scale; r++ {
				for c := j * scale; c < (j+1)*scale; c++ {
					out.Set(r, c, v)
				}
			}
		}
	}
	return out, nil
}
