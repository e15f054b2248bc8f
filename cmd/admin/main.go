package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"islandgen/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "passlog":
			passLogCmd(os.Args[2:])
			return
		case "level":
			levelCmd(os.Args[2:])
			return
		case "regenerate":
			regenerateCmd(os.Args[2:])
			return
		case "passes":
			passesCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

type snapshotInfo struct {
	Pass   uint64 `json:"pass"`
	Seed   int64  `json:"seed"`
	Side   int    `json:"side"`
	Digest string `json:"digest"`
	Path   string `json:"path"`
}

// listSnapshots returns the readable snapshots under dir, newest pass first.
func listSnapshots(dir string) ([]snapshotInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []snapshotInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, snapshot.Ext) {
			continue
		}
		if _, err := strconv.ParseUint(strings.TrimSuffix(name, snapshot.Ext), 10, 64); err != nil {
			continue
		}
		path := filepath.Join(dir, name)
		h, err := snapshot.ReadHeader(path)
		if err != nil {
			continue
		}
		out = append(out, snapshotInfo{Pass: h.Pass, Seed: h.Seed, Side: h.Side, Digest: h.Digest, Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pass > out[j].Pass })
	return out, nil
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	snaps, err := listSnapshots(filepath.Join(*dataDir, "snapshots"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for i, s := range snaps {
		if *limit > 0 && i >= *limit {
			break
		}
		printJSON(s)
	}
}

func passLogCmd(args []string) {
	fs := flag.NewFlagSet("passlog", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	failedOnly := fs.Bool("failed", false, "only print failed passes")
	_ = fs.Parse(args)

	files, err := filepath.Glob(filepath.Join(*dataDir, "passes", "passes-*.jsonl.zst"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "glob:", err)
		os.Exit(1)
	}
	sort.Strings(files)
	for _, path := range files {
		if err := dumpPassLog(path, *failedOnly, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

func dumpPassLog(path string, failedOnly bool, w *os.File) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if failedOnly {
			var e struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(line, &e); err != nil || e.Code == "" {
				continue
			}
		}
		if _, err := fmt.Fprintln(w, string(line)); err != nil {
			return err
		}
	}
	return sc.Err()
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
