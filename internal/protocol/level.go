package protocol

import (
	"strings"

	"islandgen/internal/level"
	"islandgen/internal/level/terrain"
)

func rows(g *terrain.Grid) []string {
	if g == nil {
		return []string{}
	}
	return strings.Split(strings.TrimSuffix(g.String(), "\n"), "\n")
}

// NewLevelDoc renders l for the wire.
func NewLevelDoc(l *level.Level) LevelDoc {
	doc := LevelDoc{
		Pass:       l.Pass,
		Seed:       l.Seed,
		Size:       l.Size,
		Scale:      l.Scale,
		Side:       l.Upscaled.Rows(),
		Digest:     l.Upscaled.Digest(),
		ElapsedMs:  float64(l.Elapsed.Microseconds()) / 1000,
		Composite:  rows(l.Composite),
		Ground:     rows(l.Ground),
		Grass:      rows(l.Grass),
		Counts:     map[string]int{},
		Placements: make([]PlacementDoc, 0, len(l.Placements)),
	}
	for cat, n := range l.Counts() {
		doc.Counts[string(cat)] = n
	}
	for _, p := range l.Placements {
		doc.Placements = append(doc.Placements, PlacementDoc{
			Category: string(p.Category),
			Cell:     [2]int{p.Cell.Row, p.Cell.Col},
			Anchor:   [2]float64{p.Anchor.X, p.Anchor.Y},
			Variant:  p.Variant,
		})
	}
	return doc
}

func NewLevelMsg(requestID string, l *level.Level) LevelMsg {
	return LevelMsg{Type: TypeLevel, ProtocolVersion: Version, RequestID: requestID, Level: NewLevelDoc(l)}
}
