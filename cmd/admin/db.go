package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	pass := fs.Int64("pass", 0, "pass filter (placements; defaults to latest)")
	category := fs.String("category", "", "category filter (placements)")
	seed := fs.Int64("seed", 0, "seed filter (passes)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "passes"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "passes.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}

	switch q {
	case "passes":
		query := `SELECT pass,seed,size,scale,side,digest,houses,trees,decals,elapsed_ms,COALESCE(snapshot_path,''),created_at FROM passes`
		qargs := []any{}
		if *seed != 0 {
			query += ` WHERE seed=?`
			qargs = append(qargs, *seed)
		}
		query += ` ORDER BY pass DESC LIMIT ?`
		qargs = append(qargs, *limit)
		rows, err := db.Query(query, qargs...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Pass      int64   `json:"pass"`
				Seed      int64   `json:"seed"`
				Size      int     `json:"size"`
				Scale     int     `json:"scale"`
				Side      int     `json:"side"`
				Digest    string  `json:"digest"`
				Houses    int     `json:"houses"`
				Trees     int     `json:"trees"`
				Decals    int     `json:"decals"`
				ElapsedMs float64 `json:"elapsed_ms"`
				Snapshot  string  `json:"snapshot,omitempty"`
				CreatedAt string  `json:"created_at"`
			}
			if err := rows.Scan(&r.Pass, &r.Seed, &r.Size, &r.Scale, &r.Side, &r.Digest, &r.Houses, &r.Trees, &r.Decals, &r.ElapsedMs, &r.Snapshot, &r.CreatedAt); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "rows:", err)
			os.Exit(1)
		}
	case "placements":
		if *pass == 0 {
			if err := db.QueryRow(`SELECT COALESCE(MAX(pass),0) FROM passes`).Scan(pass); err != nil {
				fmt.Fprintln(os.Stderr, "latest pass:", err)
				os.Exit(1)
			}
			if *pass == 0 {
				fmt.Fprintln(os.Stderr, "no passes indexed")
				os.Exit(2)
			}
		}
		query := `SELECT seq,category,row,col,x,y,variant FROM placements WHERE pass=?`
		qargs := []any{*pass}
		if c := strings.ToUpper(strings.TrimSpace(*category)); c != "" {
			query += ` AND category=?`
			qargs = append(qargs, c)
		}
		query += ` ORDER BY seq LIMIT ?`
		qargs = append(qargs, *limit)
		rows, err := db.Query(query, qargs...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Pass     int64   `json:"pass"`
				Seq      int     `json:"seq"`
				Category string  `json:"category"`
				Row      int     `json:"row"`
				Col      int     `json:"col"`
				X        float64 `json:"x"`
				Y        float64 `json:"y"`
				Variant  int     `json:"variant"`
			}
			if err := rows.Scan(&r.Seq, &r.Category, &r.Row, &r.Col, &r.X, &r.Y, &r.Variant); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			r.Pass = *pass
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "rows:", err)
			os.Exit(1)
		}
	case "tuning":
		var digest, raw string
		err := db.QueryRow(`SELECT t.digest,t.json FROM tunings t JOIN meta m ON m.key='tuning_digest' AND m.value=t.digest`).Scan(&digest, &raw)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		fmt.Printf("{\"digest\":%q,\"tuning\":%s}\n", digest, raw)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(want passes|placements|tuning)")
		os.Exit(2)
	}
}
