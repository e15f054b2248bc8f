package decor

import (
	"math"

	"islandgen/internal/level/terrain"
)

type Category string

const (
	Tree       Category = "TREE"
	House      Category = "HOUSE"
	GrassDecal Category = "GRASS_DECAL"
)

var Categories = []Category{Tree, House, GrassDecal}

// Vec2 is a world-space anchor.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Distance(a, b Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Placement is one decoration decision handed to the renderer.
type Placement struct {
	Category Category
	Cell     terrain.Point
	Anchor   Vec2
	Variant  int
}

// Rand is the random source consulted for every probability check.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// GridToWorld maps a grid cell to its world anchor.
type GridToWorld func(row, col int) (x, y float64)

// Linear returns the cell-centre transform used by the tile renderer: rows map to x, columns to
// y shifted by columnOffset cells.
func Linear(cellSize float64, columnOffset int) GridToWorld {
	if cellSize <= 0 {
		cellSize = 1
	}
	half := cellSize / 2
	return func(row, col int) (float64, float64) {
		return float64(row)*cellSize + half, float64(col+columnOffset)*cellSize + half
	}
}

// VariantPicker chooses which prefab or tile a renderer should use for a placement.
type VariantPicker interface {
	Pick(cat Category, anchor Vec2) int
}

type Rules struct {
	HouseChance    float64
	DecalChance    float64
	TreeChance     float64
	InteriorRadius int
	MinSpacing     float64
}

func DefaultRules() Rules {
	return Rules{
		HouseChance:    0.2,
		DecalChance:    0.1,
		TreeChance:     0.3,
		InteriorRadius: 2,
		MinSpacing:     4,
	}
}
