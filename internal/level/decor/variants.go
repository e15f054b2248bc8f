package decor

import "github.com/aquilax/go-perlin"

// NoiseVariants picks variants from 2D perlin noise over the world anchor, so neighbouring
// decorations of one category tend to share a look.
type NoiseVariants struct {
	counts map[Category]int
	noise  *perlin.Perlin
}

var variantOffsets = map[Category]float64{
	Tree:       0,
	House:      37.1,
	GrassDecal: 71.3,
}

const variantFrequency = 0.15

func NewNoiseVariants(seed int64, counts map[Category]int) *NoiseVariants {
	c := make(map[Category]int, len(counts))
	for k, v := range counts {
		c[k] = v
	}
	return &NoiseVariants{
		counts: c,
		noise:  perlin.NewPerlin(2, 2, 3, seed),
	}
}

func (v *NoiseVariants) Pick(cat Category, anchor Vec2) int {
	n := v.counts[cat]
	if n <= 1 {
		return 0
	}
	off := variantOffsets[cat]
	u := (v.noise.Noise2D(anchor.X*variantFrequency+off, anchor.Y*variantFrequency+off) + 1) / 2
	idx := int(u * float64(n))
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
