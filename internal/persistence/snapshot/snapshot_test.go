package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"islandgen/internal/level"
	"islandgen/internal/level/compose"
	"islandgen/internal/level/decor"
	"islandgen/internal/level/terrain"
)

func sampleLevel() *level.Level {
	composite := terrain.NewSquare(4)
	composite.Fill(terrain.Ground)
	composite.Set(0, 0, terrain.Empty)
	composite.Set(3, 3, terrain.Grass)
	upscaled := terrain.NewSquare(8)
	upscaled.Fill(terrain.Grass)
	ground := terrain.NewSquare(8)
	ground.Set(4, 4, terrain.Ground)
	grass := terrain.NewSquare(8)
	grass.Fill(terrain.Grass)
	return &level.Level{
		Pass:      3,
		Seed:      99,
		Size:      2,
		Scale:     2,
		Quadrants: []level.QuadrantInfo{{Slot: compose.SlotA, Wanderer: terrain.Point{Row: 1, Col: 0}, Seeker: terrain.Point{Row: 0, Col: 0}}},
		Composite: composite,
		Upscaled:  upscaled,
		Ground:    ground,
		Grass:     grass,
		Placements: []decor.Placement{
			{Category: decor.House, Cell: terrain.Point{Row: 4, Col: 4}, Anchor: decor.Vec2{X: 4.5, Y: -10.5}, Variant: 1},
			{Category: decor.GrassDecal, Cell: terrain.Point{Row: 2, Col: 5}, Anchor: decor.Vec2{X: 2.5, Y: -9.5}},
		},
		CreatedAt: time.UnixMilli(1700000000000).UTC(),
		Elapsed:   1500 * time.Microsecond,
	}
}

func TestWriteReadSnapshotRoundTrip(t *testing.T) {
	lvl := sampleLevel()
	path := Path(t.TempDir(), lvl.Pass)
	if filepath.Base(path) != "3.level.zst" {
		t.Fatalf("unexpected snapshot name %q", path)
	}
	if err := WriteSnapshot(path, Export(lvl)); err != nil {
		t.Fatalf("write: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if h.Version != Version || h.Pass != 3 || h.Seed != 99 || h.Side != 8 || h.Digest != lvl.Upscaled.Digest() {
		t.Fatalf("unexpected header: %+v", h)
	}

	snap, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got, err := snap.Level()
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	if !got.Composite.Equal(lvl.Composite) || !got.Upscaled.Equal(lvl.Upscaled) ||
		!got.Ground.Equal(lvl.Ground) || !got.Grass.Equal(lvl.Grass) {
		t.Fatalf("grids changed across the snapshot")
	}
	if len(got.Placements) != 2 || got.Placements[0] != lvl.Placements[0] || got.Placements[1] != lvl.Placements[1] {
		t.Fatalf("placements changed: %+v", got.Placements)
	}
	if got.Quadrants[0] != lvl.Quadrants[0] {
		t.Fatalf("quadrant info changed: %+v", got.Quadrants[0])
	}
	if !got.CreatedAt.Equal(lvl.CreatedAt) || got.Elapsed != lvl.Elapsed {
		t.Fatalf("timing changed: %v %v", got.CreatedAt, got.Elapsed)
	}
}

func TestLevelRejectsCorruptSnapshot(t *testing.T) {
	snap := Export(sampleLevel())
	snap.Ground.Cells = snap.Ground.Cells[:10]
	if _, err := snap.Level(); err == nil {
		t.Fatalf("expected error for truncated grid")
	}

	snap = Export(sampleLevel())
	snap.Grass.Cells[0] = 7
	if _, err := snap.Level(); err == nil {
		t.Fatalf("expected error for unknown marker")
	}

	snap = Export(sampleLevel())
	snap.Header.Digest = "00"
	if _, err := snap.Level(); err == nil {
		t.Fatalf("expected digest mismatch")
	}

	snap = Export(sampleLevel())
	snap.Header.Version = 2
	if _, err := snap.Level(); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestReadSnapshotMissingFile(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.level.zst")); err == nil {
		t.Fatalf("expected error for missing snapshot")
	}
}

type limitedWriter struct {
	left int
}

var errDiskFull = errors.New("no space left on device")

func (w *limitedWriter) Write(p []byte) (int, error) {
	if len(p) > w.left {
		n := w.left
		w.left = 0
		return n, errDiskFull
	}
	w.left -= len(p)
	return len(p), nil
}

func TestEncodeReportsWriteFailure(t *testing.T) {
	for _, limit := range []int{0, 16} {
		if err := encode(&limitedWriter{left: limit}, Export(sampleLevel())); !errors.Is(err, errDiskFull) {
			t.Fatalf("limit=%d: expected write failure, got %v", limit, err)
		}
	}
}

func TestWriteSnapshotFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir, 3)
	// A directory in the way makes the final rename fail.
	if err := os.MkdirAll(filepath.Join(path, "x"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := WriteSnapshot(path, Export(sampleLevel())); err == nil {
		t.Fatalf("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != filepath.Base(path) {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestLastPass(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	if n, err := LastPass(dir); err != nil || n != 0 {
		t.Fatalf("missing dir: n=%d err=%v", n, err)
	}
	for _, pass := range []uint64{2, 11, 7} {
		lvl := sampleLevel()
		lvl.Pass = pass
		if err := WriteSnapshot(Path(dir, pass), Export(lvl)); err != nil {
			t.Fatalf("write %d: %v", pass, err)
		}
	}
	_ = os.WriteFile(filepath.Join(dir, "latest"+Ext), []byte("x"), 0o644)
	if n, err := LastPass(dir); err != nil || n != 11 {
		t.Fatalf("LastPass=%d err=%v, want 11", n, err)
	}
}
