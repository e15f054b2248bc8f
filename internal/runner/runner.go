// Package runner executes generation passes and fans finished levels out to persistence and
// subscribers.
package runner

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sync"
	"time"

	"islandgen/internal/level"
	"islandgen/internal/level/decor"
	plog "islandgen/internal/persistence/log"
	"islandgen/internal/persistence/snapshot"
	"islandgen/internal/protocol"
)

// Trigger names where a pass request came from.
const (
	TriggerCLI   = "cli"
	TriggerWS    = "ws"
	TriggerAdmin = "admin"
)

type Request struct {
	Trigger string
	// Seed is drawn by the runner when nil.
	Seed *int64
	// Origin identifies the requesting connection, if any.
	Origin string
}

type Result struct {
	Level    *level.Level
	Snapshot string
}

// Generator is satisfied by *level.Generator.
type Generator interface {
	Generate(ctx context.Context, seed int64) (*level.Level, error)
	Busy() bool
}

// PassIndex is satisfied by *indexdb.SQLiteIndex.
type PassIndex interface {
	RecordPass(l *level.Level, snapshotPath string)
}

// PassCounter is satisfied by *indexdb.SQLiteIndex.
type PassCounter interface {
	LastPass(ctx context.Context) (uint64, error)
}

// LastPass returns the highest pass persisted in snapshotDir or idx. Either may be empty or nil.
// Generators built with level.WithLastPass(n) continue numbering after it.
func LastPass(ctx context.Context, snapshotDir string, idx PassCounter) (uint64, error) {
	var last uint64
	if snapshotDir != "" {
		n, err := snapshot.LastPass(snapshotDir)
		if err != nil {
			return 0, fmt.Errorf("scan snapshots: %w", err)
		}
		last = n
	}
	if idx != nil {
		n, err := idx.LastPass(ctx)
		if err != nil {
			return 0, fmt.Errorf("index last pass: %w", err)
		}
		last = max(last, n)
	}
	return last, nil
}

type Listener func(res Result, req Request)

type Config struct {
	// SnapshotDir receives one <pass>.level.zst per pass; empty disables snapshots.
	SnapshotDir string
	PassLog     *plog.PassLogger
	Index       PassIndex
	Logger      *log.Logger
}

type Runner struct {
	gen Generator
	cfg Config
	log *log.Logger

	seedMu sync.Mutex
	seeds  *rand.Rand

	mu        sync.RWMutex
	latest    *Result
	listeners []Listener
}

func New(gen Generator, cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{
		gen:   gen,
		cfg:   cfg,
		log:   logger,
		seeds: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Subscribe registers fn to be called after every successful pass.
func (r *Runner) Subscribe(fn Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Latest returns the most recent successful pass.
func (r *Runner) Latest() (Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return Result{}, false
	}
	return *r.latest, true
}

func (r *Runner) Busy() bool { return r.gen.Busy() }

func (r *Runner) nextSeed() int64 {
	r.seedMu.Lock()
	defer r.seedMu.Unlock()
	return r.seeds.Int63()
}

// Run executes one pass. Persistence failures are logged and do not fail the pass.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	seed := r.nextSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	start := time.Now()
	lvl, err := r.gen.Generate(ctx, seed)
	if err != nil {
		r.logPass(plog.PassLogEntry{
			Seed:      seed,
			Trigger:   req.Trigger,
			ElapsedMs: float64(time.Since(start).Microseconds()) / 1000,
			Code:      protocol.CodeFor(err),
			Error:     err.Error(),
			UnixMs:    time.Now().UnixMilli(),
		})
		return Result{}, err
	}

	res := Result{Level: lvl}
	if r.cfg.SnapshotDir != "" {
		path := snapshot.Path(r.cfg.SnapshotDir, lvl.Pass)
		if err := snapshot.WriteSnapshot(path, snapshot.Export(lvl)); err != nil {
			r.log.Printf("snapshot pass=%d: %v", lvl.Pass, err)
		} else {
			res.Snapshot = path
		}
	}
	if r.cfg.Index != nil {
		r.cfg.Index.RecordPass(lvl, res.Snapshot)
	}
	r.logPass(passEntry(lvl, req.Trigger, res.Snapshot))

	r.mu.Lock()
	r.latest = &res
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()
	for _, fn := range listeners {
		fn(res, req)
	}
	return res, nil
}

func passEntry(lvl *level.Level, trigger, snapshotPath string) plog.PassLogEntry {
	counts := map[string]int{}
	for _, c := range decor.Categories {
		counts[string(c)] = 0
	}
	for cat, n := range lvl.Counts() {
		counts[string(cat)] = n
	}
	return plog.PassLogEntry{
		Pass:      lvl.Pass,
		Seed:      lvl.Seed,
		Trigger:   trigger,
		Size:      lvl.Size,
		Scale:     lvl.Scale,
		Side:      lvl.Upscaled.Rows(),
		Digest:    lvl.Upscaled.Digest(),
		Counts:    counts,
		ElapsedMs: float64(lvl.Elapsed.Microseconds()) / 1000,
		UnixMs:    lvl.CreatedAt.UnixMilli(),
		Snapshot:  snapshotPath,
	}
}

func (r *Runner) logPass(e plog.PassLogEntry) {
	if r.cfg.PassLog == nil {
		return
	}
	if err := r.cfg.PassLog.WritePass(e); err != nil {
		r.log.Printf("pass log: %v", err)
	}
}
