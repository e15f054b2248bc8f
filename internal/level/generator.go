package level

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"islandgen/internal/level/anchors"
	"islandgen/internal/level/decor"
	"islandgen/internal/level/source"
	"islandgen/internal/mathx"
	"islandgen/internal/tuning"
)

// ErrBusy is returned when a pass is requested while another one is running.
var ErrBusy = errors.New("level: generation already in progress")

// Rand drives anchor selection and every decoration roll of a pass.
type Rand interface {
	decor.Rand
	anchors.Intn
}

type Option func(*Generator)

// WithRand replaces the per-pass random source factory.
func WithRand(fn func(seed int64) Rand) Option {
	return func(g *Generator) { g.newRand = fn }
}

// WithGridToWorld replaces the tuning-derived world transform.
func WithGridToWorld(fn decor.GridToWorld) Option {
	return func(g *Generator) { g.toWorld = fn }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLastPass resumes pass numbering after n, the highest pass already persisted.
func WithLastPass(n uint64) Option {
	return func(g *Generator) { g.passes.Store(n) }
}

type Generator struct {
	tune    tuning.Tuning
	src     source.Source
	log     *log.Logger
	newRand func(seed int64) Rand
	toWorld decor.GridToWorld
	now     func() time.Time

	busy   atomic.Bool
	passes atomic.Uint64

	mu      sync.Mutex
	metrics Metrics
}

type Metrics struct {
	Passes         uint64
	Failures       uint64
	LastSeed       int64
	LastDurationMS float64
	LastSize       int
	LastScale      int
	LastCounts     map[decor.Category]int
}

func New(tune tuning.Tuning, src source.Source, logger *log.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	g := &Generator{
		tune: tune,
		src:  src,
		log:  logger,
		newRand: func(seed int64) Rand {
			return rand.New(rand.NewSource(seed))
		},
		toWorld: decor.Linear(tune.World.CellSize, tune.World.ColumnOffset),
		now:     time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Rules converts decoration tuning into planner rules.
func Rules(t tuning.Tuning) decor.Rules {
	return decor.Rules{
		HouseChance:    t.Decor.HouseChance,
		DecalChance:    t.Decor.DecalChance,
		TreeChance:     t.Decor.TreeChance,
		InteriorRadius: t.Decor.InteriorRadius,
		MinSpacing:     t.Decor.MinSpacing,
	}
}

func variantCounts(t tuning.Tuning) map[decor.Category]int {
	return map[decor.Category]int{
		decor.Tree:       t.Decor.TreeVariants,
		decor.House:      t.Decor.HouseVariants,
		decor.GrassDecal: t.Decor.DecalVariants,
	}
}

// Generate runs one full pass for seed. Quadrants are requested one at a time in A, B, C, D order;
// any failure aborts the pass and no partial level is returned.
func (g *Generator) Generate(ctx context.Context, seed int64) (*Level, error) {
	if !g.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer g.busy.Store(false)

	start := g.now()
	lvl, err := g.generate(ctx, seed)
	elapsed := g.now().Sub(start)

	g.mu.Lock()
	g.metrics.LastSeed = seed
	g.metrics.LastDurationMS = float64(elapsed.Microseconds()) / 1000
	if err != nil {
		g.metrics.Failures++
	} else {
		g.metrics.Passes++
		g.metrics.LastSize = lvl.Size
		g.metrics.LastScale = lvl.Scale
		g.metrics.LastCounts = lvl.Counts()
	}
	g.mu.Unlock()

	if err != nil {
		g.log.Printf("pass seed=%d failed after %s: %v", seed, elapsed.Round(time.Millisecond), err)
		return nil, err
	}
	lvl.Elapsed = elapsed
	c := lvl.Counts()
	g.log.Printf("pass=%d seed=%d size=%d scale=%d side=%d houses=%d trees=%d decals=%d took=%s",
		lvl.Pass, seed, lvl.Size, lvl.Scale, lvl.Upscaled.Rows(),
		c[decor.House], c[decor.Tree], c[decor.GrassDecal], elapsed.Round(time.Millisecond))
	return lvl, nil
}

func (g *Generator) generate(ctx context.Context, seed int64) (*Level, error) {
	rng := g.newRand(seed)
	plan, err := anchors.NewPlan(rng,
		anchors.Range{Min: g.tune.QuadrantSize.Min, Max: g.tune.QuadrantSize.Max},
		anchors.Range{Min: g.tune.Scale.Min, Max: g.tune.Scale.Max},
	)
	if err != nil {
		return nil, err
	}

	raw := make([]RawQuadrant, 0, len(plan.Requests))
	infos := make([]QuadrantInfo, 0, len(plan.Requests))
	for i, req := range plan.Requests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := g.src.Generate(ctx, req, mathx.SubSeed(seed, i))
		if err != nil {
			return nil, err
		}
		raw = append(raw, RawQuadrant{Slot: req.Slot, Lines: lines, Wanderer: req.Wanderer, Seeker: req.Seeker})
		infos = append(infos, QuadrantInfo{Slot: req.Slot, Wanderer: req.Wanderer, Seeker: req.Seeker})
	}

	planner := &decor.Planner{
		Rules:    Rules(g.tune),
		Rand:     rng,
		ToWorld:  g.toWorld,
		Variants: decor.NewNoiseVariants(seed, variantCounts(g.tune)),
	}
	sess, err := Assemble(raw, plan.Size, plan.Scale, planner)
	if err != nil {
		return nil, err
	}
	return &Level{
		Pass:       g.passes.Add(1),
		Seed:       seed,
		Size:       plan.Size,
		Scale:      plan.Scale,
		Quadrants:  infos,
		Composite:  sess.Composite,
		Upscaled:   sess.Upscaled,
		Ground:     sess.GroundLayer,
		Grass:      sess.GrassLayer,
		Placements: sess.Placements,
		CreatedAt:  g.now().UTC(),
	}, nil
}

func (g *Generator) Metrics() Metrics {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.metrics
	if m.LastCounts != nil {
		counts := make(map[decor.Category]int, len(m.LastCounts))
		for k, v := range m.LastCounts {
			counts[k] = v
		}
		m.LastCounts = counts
	}
	return m
}

// Busy reports whether a pass is running.
func (g *Generator) Busy() bool { return g.busy.Load() }
