package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"islandgen/internal/level"
	"islandgen/internal/level/decor"
	"islandgen/internal/tuning"
)

// SQLiteIndex is a queryable secondary index of generation passes. Writes are queued to a single
// writer goroutine; the JSONL pass log stays the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type req struct {
	pass passRow
	done chan struct{}
}

type passRow struct {
	Pass       uint64
	Seed       int64
	Size       int
	Scale      int
	Side       int
	Digest     string
	Houses     int
	Trees      int
	Decals     int
	ElapsedMs  float64
	Snapshot   string
	CreatedAt  string
	Placements []decor.Placement
}

// PassRow is one indexed pass.
type PassRow struct {
	Pass      uint64  `json:"pass"`
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

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 1024),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tunings (
			digest TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS passes (
			pass INTEGER PRIMARY KEY,
			seed INTEGER NOT NULL,
			size INTEGER NOT NULL,
			scale INTEGER NOT NULL,
			side INTEGER NOT NULL,
			digest TEXT NOT NULL,
			houses INTEGER NOT NULL,
			trees INTEGER NOT NULL,
			decals INTEGER NOT NULL,
			elapsed_ms REAL NOT NULL,
			snapshot_path TEXT,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_passes_seed ON passes(seed);`,
		`CREATE TABLE IF NOT EXISTS placements (
			pass INTEGER NOT NULL REFERENCES passes(pass) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			category TEXT NOT NULL,
			row INTEGER NOT NULL,
			col INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			variant INTEGER NOT NULL,
			PRIMARY KEY (pass, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_placements_category ON placements(category, pass);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Dropped reports how many passes were not indexed because the queue was full.
func (s *SQLiteIndex) Dropped() uint64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}

// RecordPass queues a finished level. snapshotPath may be empty.
func (s *SQLiteIndex) RecordPass(l *level.Level, snapshotPath string) {
	if s == nil || s.closed.Load() || l == nil {
		return
	}
	c := l.Counts()
	r := passRow{
		Pass:       l.Pass,
		Seed:       l.Seed,
		Size:       l.Size,
		Scale:      l.Scale,
		Side:       l.Upscaled.Rows(),
		Digest:     l.Upscaled.Digest(),
		Houses:     c[decor.House],
		Trees:      c[decor.Tree],
		Decals:     c[decor.GrassDecal],
		ElapsedMs:  float64(l.Elapsed.Microseconds()) / 1000,
		Snapshot:   snapshotPath,
		CreatedAt:  l.CreatedAt.UTC().Format(time.RFC3339Nano),
		Placements: append([]decor.Placement(nil), l.Placements...),
	}
	select {
	case s.ch <- req{pass: r}:
	default:
		s.dropped.Add(1)
	}
}

// Sync blocks until every queued write before it has been applied.
func (s *SQLiteIndex) Sync(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpsertTuning stores the tuning in effect, keyed by the digest of its canonical JSON.
func (s *SQLiteIndex) UpsertTuning(t tuning.Tuning) (string, error) {
	if s == nil {
		return "", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	digest := hex.EncodeToString(sum[:])
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return "", err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('tuning_digest',?)`, digest); err != nil {
		return "", err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO tunings(digest,json,updated_at) VALUES(?,?,?)`, digest, string(b), now); err != nil {
		return "", err
	}
	return digest, tx.Commit()
}

// RecentPasses returns up to limit passes, newest first.
func (s *SQLiteIndex) RecentPasses(ctx context.Context, limit int) ([]PassRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT pass,seed,size,scale,side,digest,houses,trees,decals,elapsed_ms,COALESCE(snapshot_path,''),created_at
		FROM passes ORDER BY pass DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PassRow
	for rows.Next() {
		var r PassRow
		if err := rows.Scan(&r.Pass, &r.Seed, &r.Size, &r.Scale, &r.Side, &r.Digest, &r.Houses, &r.Trees, &r.Decals, &r.ElapsedMs, &r.Snapshot, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastPass returns the highest indexed pass, or 0 for an empty index.
func (s *SQLiteIndex) LastPass(ctx context.Context) (uint64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(pass),0) FROM passes`).Scan(&n); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// PlacementCount returns how many placements of cat were indexed for pass.
func (s *SQLiteIndex) PlacementCount(ctx context.Context, pass uint64, cat decor.Category) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM placements WHERE pass=? AND category=?`, pass, string(cat)).Scan(&n)
	return n, err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()
	for r := range s.ch {
		if r.done != nil {
			close(r.done)
			continue
		}
		if err := s.writePass(ctx, r.pass); err != nil {
			s.dropped.Add(1)
		}
	}
}

func (s *SQLiteIndex) writePass(ctx context.Context, r passRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO passes(pass,seed,size,scale,side,digest,houses,trees,decals,elapsed_ms,snapshot_path,created_at) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		int64(r.Pass), r.Seed, r.Size, r.Scale, r.Side, r.Digest, r.Houses, r.Trees, r.Decals, r.ElapsedMs, nullString(r.Snapshot), r.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM placements WHERE pass=?`, int64(r.Pass)); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO placements(pass,seq,category,row,col,x,y,variant) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, p := range r.Placements {
		if _, err := stmt.Exec(int64(r.Pass), i, string(p.Category), p.Cell.Row, p.Cell.Col, p.Anchor.X, p.Anchor.Y, p.Variant); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
