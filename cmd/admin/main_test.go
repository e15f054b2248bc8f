package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"islandgen/internal/level"
	"islandgen/internal/level/terrain"
	plog "islandgen/internal/persistence/log"
	"islandgen/internal/persistence/snapshot"
)

func writeSnap(t *testing.T, dir string, pass uint64, seed int64) {
	t.Helper()
	up := terrain.NewSquare(4)
	l := &level.Level{
		Pass: pass, Seed: seed, Size: 1, Scale: 2,
		Composite: terrain.NewSquare(2), Upscaled: up, Ground: up.Clone(), Grass: up.Clone(),
	}
	if err := snapshot.WriteSnapshot(snapshot.Path(dir, pass), snapshot.Export(l)); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeSnap(t, dir, 2, 20)
	writeSnap(t, dir, 10, 100)
	writeSnap(t, dir, 1, 10)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "junk"+snapshot.Ext), []byte("x"), 0o644)

	got, err := listSnapshots(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].Pass != 10 || got[1].Pass != 2 || got[2].Pass != 1 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Seed != 100 || got[0].Side != 4 {
		t.Fatalf("unexpected header: %+v", got[0])
	}
}

func TestDumpPassLogFailedOnly(t *testing.T) {
	dir := t.TempDir()
	l := plog.NewPassLogger(dir)
	_ = l.WritePass(plog.PassLogEntry{Pass: 1, Seed: 1, Trigger: "cli"})
	_ = l.WritePass(plog.PassLogEntry{Seed: 2, Trigger: "ws", Code: "E_BUSY", Error: "busy"})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "passes", "passes-*.jsonl.zst"))
	if len(files) != 1 {
		t.Fatalf("expected one pass log file, got %v", files)
	}

	out, err := os.CreateTemp(t.TempDir(), "dump")
	if err != nil {
		t.Fatalf("tmp: %v", err)
	}
	if err := dumpPassLog(files[0], true, out); err != nil {
		t.Fatalf("dump: %v", err)
	}
	_ = out.Close()
	b, _ := os.ReadFile(out.Name())
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], `"code":"E_BUSY"`) {
		t.Fatalf("unexpected dump: %q", b)
	}
}
