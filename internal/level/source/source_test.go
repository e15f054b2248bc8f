package source

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"islandgen/internal/level/anchors"
	"islandgen/internal/level/compose"
	"islandgen/internal/level/terrain"
	"islandgen/internal/tuning"
)

const fakeEnv = "IG_FAKE_TERRAINGEN"

// TestMain lets the test binary stand in for terraingen when fakeEnv is set.
func TestMain(m *testing.M) {
	if mode := os.Getenv(fakeEnv); mode != "" {
		os.Exit(fakeTerraingen(mode, os.Args[1:]))
	}
	os.Exit(m.Run())
}

func fakeTerraingen(mode string, args []string) int {
	fs := flag.NewFlagSet("terraingen", flag.ContinueOnError)
	cmd := fs.String("cmd", "", "")
	out := fs.String("out", ".", "")
	_ = fs.Int64("seed", 0, "")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	parts := strings.Split(*cmd, ",")
	switch mode {
	case "fail":
		fmt.Fprintln(os.Stderr, "boom")
		return 3
	case "sleep":
		time.Sleep(10 * time.Second)
		return 0
	case "silent":
		return 0
	}
	name := parts[len(parts)-1]
	body := "010\n111\n002\n"
	if err := os.WriteFile(filepath.Join(*out, name+".txt"), []byte(body), 0o644); err != nil {
		return 1
	}
	return 0
}

func request(slot compose.Slot) anchors.Request {
	return anchors.Request{
		Slot:     slot,
		Wanderer: terrain.Point{Row: 2, Col: 0},
		Seeker:   terrain.Point{Row: 0, Col: 1},
		Rows:     3,
		Cols:     3,
	}
}

func TestExecReadsGeneratedFile(t *testing.T) {
	t.Setenv(fakeEnv, "ok")
	e := &Exec{Binary: os.Args[0], WorkDir: filepath.Join(t.TempDir(), "q"), Timeout: 5 * time.Second}
	lines, err := e.Generate(context.Background(), request(compose.SlotC), 11)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.Join(lines, "|") != "010|111|002" {
		t.Fatalf("unexpected lines %q", lines)
	}
	if _, err := os.Stat(OutputPath(e.WorkDir, compose.SlotC)); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestExecFailureWrapsGeneratorError(t *testing.T) {
	t.Setenv(fakeEnv, "fail")
	e := &Exec{Binary: os.Args[0], WorkDir: t.TempDir()}
	_, err := e.Generate(context.Background(), request(compose.SlotB), 1)
	if !errors.Is(err, ErrGenerator) {
		t.Fatalf("expected ErrGenerator, got %v", err)
	}
	var ge *GeneratorError
	if !errors.As(err, &ge) || ge.Slot != compose.SlotB {
		t.Fatalf("expected GeneratorError for B, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestExecTimeout(t *testing.T) {
	t.Setenv(fakeEnv, "sleep")
	e := &Exec{Binary: os.Args[0], WorkDir: t.TempDir(), Timeout: 200 * time.Millisecond}
	_, err := e.Generate(context.Background(), request(compose.SlotD), 1)
	if !errors.Is(err, ErrGenerator) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected generator timeout, got %v", err)
	}
}

func TestExecMissingOutputIsAFailure(t *testing.T) {
	t.Setenv(fakeEnv, "silent")
	dir := t.TempDir()
	// A stale file from an earlier pass must not be picked up.
	if err := os.WriteFile(OutputPath(dir, compose.SlotA), []byte("000\n000\n000\n"), 0o644); err != nil {
		t.Fatalf("write stale: %v", err)
	}
	e := &Exec{Binary: os.Args[0], WorkDir: dir}
	if _, err := e.Generate(context.Background(), request(compose.SlotA), 1); !errors.Is(err, ErrGenerator) {
		t.Fatalf("expected ErrGenerator, got %v", err)
	}
}

func TestExecMissingBinary(t *testing.T) {
	e := &Exec{Binary: filepath.Join(t.TempDir(), "does-not-exist"), WorkDir: t.TempDir()}
	if _, err := e.Generate(context.Background(), request(compose.SlotA), 1); !errors.Is(err, ErrGenerator) {
		t.Fatalf("expected ErrGenerator, got %v", err)
	}
}

func TestLocalGeneratesRequestedShape(t *testing.T) {
	req := anchors.ForSize(fixedIntn{}, 12)[0]
	lines, err := Local{}.Generate(context.Background(), req, 5)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := compose.ParseQuadrant(req.Slot, lines, 12); err != nil {
		t.Fatalf("local output must parse: %v", err)
	}
}

func TestSourcesReturnContextErrorBeforeRunning(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()

	sources := map[string]Source{
		"local": Local{},
		"exec":  &Exec{Binary: filepath.Join(t.TempDir(), "never-run"), WorkDir: t.TempDir()},
	}
	for name, src := range sources {
		for _, tc := range []struct {
			ctx  context.Context
			want error
		}{
			{cancelled, context.Canceled},
			{expired, context.DeadlineExceeded},
		} {
			_, err := src.Generate(tc.ctx, request(compose.SlotA), 1)
			if !errors.Is(err, tc.want) {
				t.Fatalf("%s: expected %v, got %v", name, tc.want, err)
			}
			if errors.Is(err, ErrGenerator) {
				t.Fatalf("%s: context error must not be a generator failure: %v", name, err)
			}
		}
	}
}

type fixedIntn struct{}

func (fixedIntn) Intn(n int) int { return n / 2 }

func TestFromTuningSelectsMode(t *testing.T) {
	cfg := tuning.Defaults().Generator
	if _, ok := FromTuning(cfg, nil).(Local); !ok {
		t.Fatalf("local mode must build a Local source")
	}
	cfg.Mode = tuning.ModeExec
	cfg.TimeoutMs = 250
	e, ok := FromTuning(cfg, nil).(*Exec)
	if !ok {
		t.Fatalf("exec mode must build an Exec source")
	}
	if e.Timeout != 250*time.Millisecond || e.Binary != cfg.Binary || e.WorkDir != cfg.WorkDir {
		t.Fatalf("exec source not configured from tuning: %+v", e)
	}
}
