package source

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"islandgen/internal/level/anchors"
	"islandgen/internal/level/compose"
)

// Exec runs `<Binary> -cmd <args> -out <WorkDir> -seed <n>` and reads <WorkDir>/<slot>.txt.
type Exec struct {
	Binary  string
	WorkDir string
	Timeout time.Duration
	Logger  *log.Logger
}

func (e *Exec) Generate(ctx context.Context, req anchors.Request, seed int64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(e.WorkDir, 0o755); err != nil {
		return nil, fail(req.Slot, err)
	}
	out := OutputPath(e.WorkDir, req.Slot)
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return nil, fail(req.Slot, fmt.Errorf("remove stale output: %w", err))
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, e.Binary,
		"-cmd", req.Args(),
		"-out", e.WorkDir,
		"-seed", strconv.FormatInt(seed, 10),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, tail(msg, 512))
		}
		return nil, fail(req.Slot, err)
	}
	if e.Logger != nil {
		e.Logger.Printf("quadrant %s generated in %s (%s)", req.Slot, time.Since(start).Round(time.Millisecond), req.Args())
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fail(req.Slot, fmt.Errorf("read output: %w", err))
	}
	defer f.Close()
	lines, err := compose.ReadLines(f)
	if err != nil {
		return nil, fail(req.Slot, fmt.Errorf("read output: %w", err))
	}
	return lines, nil
}

// OutputPath is where the generator writes a quadrant.
func OutputPath(dir string, slot compose.Slot) string {
	return filepath.Join(dir, string(slot)+".txt")
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
