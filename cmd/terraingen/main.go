// Command terraingen writes one wanderer/seeker quadrant to <out>/<name>.txt.
//
//	terraingen -cmd wr,wc,sr,sc,rows,cols,name -out dir -seed n
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"islandgen/internal/level/anchors"
	"islandgen/internal/level/source"
	"islandgen/internal/wanderer"
)

func main() {
	var (
		cmdArgs  = flag.String("cmd", "", "wandererRow,wandererCol,seekerRow,seekerCol,rows,cols,name")
		outDir   = flag.String("out", ".", "output directory")
		seed     = flag.Int64("seed", 0, "random seed (0: time based)")
		maxSteps = flag.Int("max_steps", 0, "walk step cap (0: rows*cols*100)")
		echo     = flag.Bool("print", false, "also print the quadrant to stdout")
	)
	flag.Parse()

	if *cmdArgs == "" {
		fmt.Fprintln(os.Stderr, "missing -cmd")
		os.Exit(2)
	}
	req, err := anchors.ParseArgs(*cmdArgs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse -cmd:", err)
		os.Exit(2)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	f, err := wanderer.Generate(wanderer.Config{
		Wanderer: req.Wanderer,
		Seeker:   req.Seeker,
		Rows:     req.Rows,
		Cols:     req.Cols,
		MaxSteps: *maxSteps,
	}, rand.New(rand.NewSource(*seed)))
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate:", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "mkdir:", err)
		os.Exit(1)
	}
	path := source.OutputPath(*outDir, req.Slot)
	tmp, err := os.CreateTemp(*outDir, "."+string(req.Slot)+"-*.tmp")
	if err != nil {
		fmt.Fprintln(os.Stderr, "create:", err)
		os.Exit(1)
	}
	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		fmt.Fprintln(os.Stderr, "write:", err)
		os.Exit(1)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		fmt.Fprintln(os.Stderr, "close:", err)
		os.Exit(1)
	}
	// Readers only ever see a complete file.
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		fmt.Fprintln(os.Stderr, "rename:", err)
		os.Exit(1)
	}
	if *echo {
		_, _ = f.WriteTo(os.Stdout)
	}
}
