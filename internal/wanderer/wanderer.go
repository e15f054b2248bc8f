// Package wanderer is the quadrant path generator run by cmd/terraingen. A wanderer random-walks
// over open cells while a seeker greedily chases it; both leave a path behind. The walk ends once
// the seeker steps on a cell the wanderer has visited. A large open region is then marked as ground.
package wanderer

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"islandgen/internal/level/terrain"
)

var ErrStepLimit = errors.New("wanderer: step limit reached")

// Rand is the integer random source; *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

type Config struct {
	Wanderer terrain.Point
	Seeker   terrain.Point
	Rows     int
	Cols     int

	// MaxSteps bounds the walk; 0 means 100 steps per cell.
	MaxSteps int
	// GroundCoverage is the minimum share of the field a region needs to become ground.
	GroundCoverage float64
}

const DefaultGroundCoverage = 0.1

type walk struct {
	f   *Field
	rng Rand

	wanderer terrain.Point
	seeker   terrain.Point

	visited     mapset.Set[terrain.Point]
	order       []terrain.Point
	seekerTrail []terrain.Point
}

func Generate(cfg Config, rng Rand) (*Field, error) {
	if cfg.Rows <= 0 || cfg.Cols <= 0 {
		return nil, fmt.Errorf("wanderer: invalid dims %dx%d", cfg.Rows, cfg.Cols)
	}
	f := newField(cfg.Rows, cfg.Cols)
	if !f.within(cfg.Wanderer) {
		return nil, fmt.Errorf("wanderer: wanderer %v outside %dx%d", cfg.Wanderer, cfg.Rows, cfg.Cols)
	}
	if !f.within(cfg.Seeker) {
		return nil, fmt.Errorf("wanderer: seeker %v outside %dx%d", cfg.Seeker, cfg.Rows, cfg.Cols)
	}
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = cfg.Rows * cfg.Cols * 100
	}
	coverage := cfg.GroundCoverage
	if coverage <= 0 {
		coverage = DefaultGroundCoverage
	}

	w := &walk{
		f:        f,
		rng:      rng,
		wanderer: cfg.Wanderer,
		seeker:   cfg.Seeker,
		visited:  mapset.New[terrain.Point](),
	}
	steps := 0
	for !w.visited.Has(w.seeker) {
		if steps >= maxSteps {
			return nil, fmt.Errorf("%w after %d steps", ErrStepLimit, steps)
		}
		steps++
		f.set(w.seeker, Path)
		f.set(w.wanderer, Path)
		w.markVisited(w.wanderer)
		w.seekerTrail = append(w.seekerTrail, w.seeker)

		w.moveSeeker()
		w.moveWanderer()
	}
	carveGround(f, rng, coverage)
	return f, nil
}

func (w *walk) markVisited(p terrain.Point) {
	if w.visited.Has(p) {
		return
	}
	w.visited.Put(p)
	w.order = append(w.order, p)
}

func moves(p terrain.Point) [4]terrain.Point {
	return [4]terrain.Point{p.Add(-1, 0), p.Add(1, 0), p.Add(0, -1), p.Add(0, 1)}
}

// moveSeeker steps toward the wanderer. When it already stands on the wanderer it merges its
// trail into the visited set (if it caught the wanderer on a visited cell) and respawns at random.
func (w *walk) moveSeeker() {
	dist := terrain.Manhattan(w.seeker, w.wanderer)
	var valid []terrain.Point
	for _, m := range moves(w.seeker) {
		if terrain.Manhattan(m, w.wanderer) < dist {
			valid = append(valid, m)
		}
	}
	if len(valid) > 0 {
		w.seeker = valid[w.rng.Intn(len(valid))]
		return
	}
	if w.visited.Has(w.seeker) {
		for _, p := range w.seekerTrail {
			w.markVisited(p)
		}
	}
	w.seekerTrail = w.seekerTrail[:0]
	w.seeker = terrain.Point{Row: w.rng.Intn(w.f.Rows), Col: w.rng.Intn(w.f.Cols)}
}

// moveWanderer steps to a random unvisited open neighbour, or jumps back onto its own path.
func (w *walk) moveWanderer() {
	var valid []terrain.Point
	for _, m := range moves(w.wanderer) {
		if w.f.within(m) && !w.visited.Has(m) && w.f.At(m) == Open {
			valid = append(valid, m)
		}
	}
	if len(valid) > 0 {
		w.wanderer = valid[w.rng.Intn(len(valid))]
		return
	}
	w.wanderer = w.order[w.rng.Intn(len(w.order))]
}
