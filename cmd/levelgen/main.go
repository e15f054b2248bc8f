// Command levelgen runs one generation pass and exports the result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"islandgen/internal/level"
	"islandgen/internal/level/decor"
	"islandgen/internal/level/source"
	persistlog "islandgen/internal/persistence/log"
	"islandgen/internal/persistence/prefs"
	"islandgen/internal/persistence/snapshot"
	"islandgen/internal/preview"
	"islandgen/internal/protocol"
	"islandgen/internal/runner"
	"islandgen/internal/tuning"
)

func main() {
	var (
		configDir   = flag.String("configs", "./configs", "config directory")
		tuningPath  = flag.String("tuning", "", "path to level.yaml (default: <configs>/level.yaml)")
		seedFlag    = flag.Int64("seed", 0, "generation seed (0: random)")
		last        = flag.Bool("last", false, "reuse the seed of the previous successful run")
		snapDir     = flag.String("snapshot", "", "directory to write <pass>.level.zst into (optional)")
		jsonPath    = flag.String("json", "", "write the LEVEL document to this path ('-' for stdout)")
		previewPath = flag.String("preview", "", "write a PNG preview to this path")
		ppc         = flag.Int("ppc", 4, "preview pixels per cell")
		dataDir     = flag.String("data", "", "write the pass log under this directory (optional)")
		inspect     = flag.String("inspect", "", "print a summary of an existing snapshot and exit")
		timeout     = flag.Duration("timeout", 2*time.Minute, "pass timeout")
		noPrefs     = flag.Bool("no_prefs", false, "do not read or store the last run")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[levelgen] ", log.LstdFlags|log.Lmicroseconds)

	if *inspect != "" {
		if err := inspectSnapshot(*inspect, *jsonPath, *previewPath, *ppc); err != nil {
			fmt.Fprintln(os.Stderr, "inspect:", err)
			os.Exit(1)
		}
		return
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "level.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(2)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	var store *prefs.Store
	if !*noPrefs {
		store, err = prefs.Open(prefs.AppName)
		if err != nil {
			logger.Printf("prefs disabled: %v", err)
		}
	}

	lr, haveLast, err := store.LastRun()
	if err != nil {
		logger.Printf("last run: %v", err)
	}

	req := runner.Request{Trigger: runner.TriggerCLI}
	switch {
	case *seedFlag != 0:
		req.Seed = seedFlag
	case *last:
		if !haveLast {
			fmt.Fprintln(os.Stderr, "-last: no previous run recorded")
			os.Exit(2)
		}
		req.Seed = &lr.Seed
	}

	lastPass, err := runner.LastPass(context.Background(), *snapDir, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "resume pass counter:", err)
		os.Exit(1)
	}
	if haveLast {
		lastPass = max(lastPass, lr.Pass)
	}

	cfg := runner.Config{SnapshotDir: *snapDir, Logger: logger}
	if *dataDir != "" {
		pl := persistlog.NewPassLogger(*dataDir)
		defer pl.Close()
		cfg.PassLog = pl
	}
	gen := level.New(tune, source.FromTuning(tune.Generator, logger), logger, level.WithLastPass(lastPass))
	run := runner.New(gen, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	res, err := run.Run(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate: %s: %v\n", protocol.CodeFor(err), err)
		os.Exit(1)
	}

	if err := export(res.Level, *jsonPath, *previewPath, *ppc); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := store.SaveLastRun(prefs.LastRun{
		Seed:     res.Level.Seed,
		Pass:     res.Level.Pass,
		Digest:   res.Level.Upscaled.Digest(),
		Snapshot: res.Snapshot,
	}); err != nil {
		logger.Printf("save last run: %v", err)
	}
	if *jsonPath != "-" {
		printSummary(res.Level, res.Snapshot)
	}
}

func export(l *level.Level, jsonPath, previewPath string, ppc int) error {
	if jsonPath != "" {
		b, err := json.MarshalIndent(protocol.NewLevelMsg("", l), "", "  ")
		if err != nil {
			return fmt.Errorf("encode level: %w", err)
		}
		b = append(b, '\n')
		if jsonPath == "-" {
			_, err = os.Stdout.Write(b)
		} else {
			if err = os.MkdirAll(filepath.Dir(jsonPath), 0o755); err == nil {
				err = os.WriteFile(jsonPath, b, 0o644)
			}
		}
		if err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	if previewPath != "" {
		img := preview.Render(l, preview.Options{PixelsPerCell: ppc, Caption: true})
		if err := preview.WritePNG(previewPath, img); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
	}
	return nil
}

func printSummary(l *level.Level, snapshotPath string) {
	c := l.Counts()
	fmt.Printf("level pass=%d seed=%d size=%d scale=%d side=%d houses=%d trees=%d decals=%d digest=%s elapsed=%s\n",
		l.Pass, l.Seed, l.Size, l.Scale, l.Upscaled.Rows(),
		c[decor.House], c[decor.Tree], c[decor.GrassDecal],
		l.Upscaled.Digest()[:16], l.Elapsed.Round(time.Millisecond))
	if snapshotPath != "" {
		fmt.Printf("snapshot %s\n", snapshotPath)
	}
}

func inspectSnapshot(path, jsonPath, previewPath string, ppc int) error {
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return err
	}
	l, err := snap.Level()
	if err != nil {
		return err
	}
	if err := export(l, jsonPath, previewPath, ppc); err != nil {
		return err
	}
	if jsonPath == "-" {
		return nil
	}
	fmt.Printf("snapshot v%d created=%s\n", snap.Header.Version, l.CreatedAt.Format(time.RFC3339))
	for _, q := range l.Quadrants {
		fmt.Printf("  quadrant %s wanderer=(%d,%d) seeker=(%d,%d)\n", q.Slot, q.Wanderer.Row, q.Wanderer.Col, q.Seeker.Row, q.Seeker.Col)
	}
	printSummary(l, path)
	return nil
}
