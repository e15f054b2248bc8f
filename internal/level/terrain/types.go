package terrain

import "fmt"

// Marker is the terrain kind stored in every cell.
type Marker uint8

const (
	Empty  Marker = 0
	Grass  Marker = 1
	Ground Marker = 2
)

func (m Marker) String() string {
	switch m {
	case Empty:
		return "EMPTY"
	case Grass:
		return "GRASS"
	case Ground:
		return "GROUND"
	default:
		return fmt.Sprintf("MARKER(%d)", uint8(m))
	}
}

type Point struct {
	Row int
	Col int
}

func (p Point) Add(dr, dc int) Point {
	return Point{Row: p.Row + dr, Col: p.Col + dc}
}

// Manhattan returns |dr|+|dc|.
func Manhattan(a, b Point) int {
	return absInt(a.Row-b.Row) + absInt(a.Col-b.Col)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
