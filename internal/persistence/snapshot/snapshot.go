package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"islandgen/internal/level"
	"islandgen/internal/level/compose"
	"islandgen/internal/level/decor"
	"islandgen/internal/level/terrain"
)

const Version = 1

// Ext is the file extension of level snapshots.
const Ext = ".level.zst"

type Header struct {
	Version int    `json:"version"`
	Pass    uint64 `json:"pass"`
	Seed    int64  `json:"seed"`
	Side    int    `json:"side"`
	Digest  string `json:"digest"`
}

type LevelV1 struct {
	Header Header `json:"header"`

	Size  int `json:"size"`
	Scale int `json:"scale"`

	Quadrants []QuadrantV1 `json:"quadrants"`

	Composite GridV1 `json:"composite"`
	Upscaled  GridV1 `json:"upscaled"`
	Ground    GridV1 `json:"ground"`
	Grass     GridV1 `json:"grass"`

	Placements []PlacementV1 `json:"placements"`

	CreatedUnixMs int64 `json:"created_unix_ms"`
	ElapsedUs     int64 `json:"elapsed_us"`
}

type QuadrantV1 struct {
	Slot     string `json:"slot"`
	Wanderer [2]int `json:"wanderer"`
	Seeker   [2]int `json:"seeker"`
}

type GridV1 struct {
	Rows  int     `json:"rows"`
	Cols  int     `json:"cols"`
	Cells []uint8 `json:"cells"`
}

type PlacementV1 struct {
	Category string  `json:"category"`
	Row      int     `json:"row"`
	Col      int     `json:"col"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Variant  int     `json:"variant"`
}

func exportGrid(g *terrain.Grid) GridV1 {
	if g == nil {
		return GridV1{}
	}
	cells := g.Cells()
	raw := make([]uint8, len(cells))
	for i, m := range cells {
		raw[i] = uint8(m)
	}
	return GridV1{Rows: g.Rows(), Cols: g.Cols(), Cells: raw}
}

func (g GridV1) grid(name string) (*terrain.Grid, error) {
	cells := make([]terrain.Marker, len(g.Cells))
	for i, v := range g.Cells {
		if v > uint8(terrain.Ground) {
			return nil, fmt.Errorf("snapshot: %s cell %d has unknown marker %d", name, i, v)
		}
		cells[i] = terrain.Marker(v)
	}
	out, ok := terrain.FromCells(g.Rows, g.Cols, cells)
	if !ok {
		return nil, fmt.Errorf("snapshot: %s grid %dx%d has %d cells", name, g.Rows, g.Cols, len(g.Cells))
	}
	return out, nil
}

// Export captures a finished level.
func Export(l *level.Level) LevelV1 {
	snap := LevelV1{
		Header: Header{
			Version: Version,
			Pass:    l.Pass,
			Seed:    l.Seed,
			Side:    l.Upscaled.Rows(),
			Digest:  l.Upscaled.Digest(),
		},
		Size:          l.Size,
		Scale:         l.Scale,
		Composite:     exportGrid(l.Composite),
		Upscaled:      exportGrid(l.Upscaled),
		Ground:        exportGrid(l.Ground),
		Grass:         exportGrid(l.Grass),
		CreatedUnixMs: l.CreatedAt.UnixMilli(),
		ElapsedUs:     l.Elapsed.Microseconds(),
	}
	for _, q := range l.Quadrants {
		snap.Quadrants = append(snap.Quadrants, QuadrantV1{
			Slot:     string(q.Slot),
			Wanderer: [2]int{q.Wanderer.Row, q.Wanderer.Col},
			Seeker:   [2]int{q.Seeker.Row, q.Seeker.Col},
		})
	}
	snap.Placements = make([]PlacementV1, 0, len(l.Placements))
	for _, p := range l.Placements {
		snap.Placements = append(snap.Placements, PlacementV1{
			Category: string(p.Category),
			Row:      p.Cell.Row,
			Col:      p.Cell.Col,
			X:        p.Anchor.X,
			Y:        p.Anchor.Y,
			Variant:  p.Variant,
		})
	}
	return snap
}

// Level rebuilds the level recorded in the snapshot.
func (s LevelV1) Level() (*level.Level, error) {
	if s.Header.Version != Version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", s.Header.Version)
	}
	l := &level.Level{
		Pass:      s.Header.Pass,
		Seed:      s.Header.Seed,
		Size:      s.Size,
		Scale:     s.Scale,
		CreatedAt: time.UnixMilli(s.CreatedUnixMs).UTC(),
		Elapsed:   time.Duration(s.ElapsedUs) * time.Microsecond,
	}
	var err error
	if l.Composite, err = s.Composite.grid("composite"); err != nil {
		return nil, err
	}
	if l.Upscaled, err = s.Upscaled.grid("upscaled"); err != nil {
		return nil, err
	}
	if l.Ground, err = s.Ground.grid("ground"); err != nil {
		return nil, err
	}
	if l.Grass, err = s.Grass.grid("grass"); err != nil {
		return nil, err
	}
	if s.Header.Digest != "" && l.Upscaled.Digest() != s.Header.Digest {
		return nil, fmt.Errorf("snapshot: upscaled digest mismatch")
	}
	for _, q := range s.Quadrants {
		l.Quadrants = append(l.Quadrants, level.QuadrantInfo{
			Slot:     compose.Slot(q.Slot),
			Wanderer: terrain.Point{Row: q.Wanderer[0], Col: q.Wanderer[1]},
			Seeker:   terrain.Point{Row: q.Seeker[0], Col: q.Seeker[1]},
		})
	}
	for _, p := range s.Placements {
		l.Placements = append(l.Placements, decor.Placement{
			Category: decor.Category(p.Category),
			Cell:     terrain.Point{Row: p.Row, Col: p.Col},
			Anchor:   decor.Vec2{X: p.X, Y: p.Y},
			Variant:  p.Variant,
		})
	}
	return l, nil
}

// Path returns the snapshot path for a pass under dir.
func Path(dir string, pass uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d%s", pass, Ext))
}

// WriteSnapshot writes snap to path through a temp file in the same directory. The path only
// ever holds a complete snapshot.
func WriteSnapshot(path string, snap LevelV1) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := encode(f, snap); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func encode(w io.Writer, snap LevelV1) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	_, err = bw.Write(append(hb, '\n'))
	if err == nil {
		if err = gob.NewEncoder(bw).Encode(&snap); err != nil {
			err = fmt.Errorf("gob encode: %w", err)
		}
	}
	if err == nil {
		err = bw.Flush()
	}
	if cerr := enc.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("zstd close: %w", cerr)
	}
	return err
}

// LastPass returns the highest pass with a snapshot in dir. A missing dir counts as empty.
func LastPass(dir string) (uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	var last uint64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, Ext) {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(name, Ext), 10, 64)
		if err != nil {
			continue
		}
		if n > last {
			last = n
		}
	}
	return last, nil
}

// ReadHeader decodes only the leading header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (LevelV1, error) {
	var snap LevelV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
