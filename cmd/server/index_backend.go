package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"islandgen/internal/level"
	"islandgen/internal/persistence/indexdb"
	"islandgen/internal/tuning"
)

type runtimeIndex interface {
	RecordPass(l *level.Level, snapshotPath string)
	UpsertTuning(t tuning.Tuning) (string, error)
	RecentPasses(ctx context.Context, limit int) ([]indexdb.PassRow, error)
	LastPass(ctx context.Context) (uint64, error)
	Dropped() uint64
	Close() error
}

func openRuntimeIndex(dataDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("IG_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "passes.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported IG_INDEX_BACKEND: %s", backend)
	}
}
