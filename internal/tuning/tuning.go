package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	QuadrantSize IntRange `yaml:"quadrant_size"`
	Scale        IntRange `yaml:"scale"`

	Decor     Decor     `yaml:"decor"`
	World     World     `yaml:"world"`
	Generator Generator `yaml:"generator"`
}

// IntRange is a half-open interval [Min, Max).
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type Decor struct {
	HouseChance    float64 `yaml:"house_chance"`
	DecalChance    float64 `yaml:"decal_chance"`
	TreeChance     float64 `yaml:"tree_chance"`
	InteriorRadius int     `yaml:"interior_radius"`
	MinSpacing     float64 `yaml:"min_spacing"`

	TreeVariants  int `yaml:"tree_variants"`
	HouseVariants int `yaml:"house_variants"`
	DecalVariants int `yaml:"decal_variants"`
}

type World struct {
	CellSize     float64 `yaml:"cell_size"`
	ColumnOffset int     `yaml:"column_offset"`
}

type Generator struct {
	Mode      string `yaml:"mode"` // "exec" or "local"
	Binary    string `yaml:"binary"`
	WorkDir   string `yaml:"work_dir"`
	TimeoutMs int    `yaml:"timeout_ms"`
	MaxSteps  int    `yaml:"max_steps"`
}

const (
	ModeExec  = "exec"
	ModeLocal = "local"
)

func Defaults() Tuning {
	return Tuning{
		QuadrantSize: IntRange{Min: 10, Max: 20},
		Scale:        IntRange{Min: 2, Max: 5},
		Decor: Decor{
			HouseChance:    0.2,
			DecalChance:    0.1,
			TreeChance:     0.3,
			InteriorRadius: 2,
			MinSpacing:     4,
			TreeVariants:   3,
			HouseVariants:  2,
			DecalVariants:  4,
		},
		World: World{
			CellSize:     1,
			ColumnOffset: -15,
		},
		Generator: Generator{
			Mode:      ModeLocal,
			Binary:    "terraingen",
			WorkDir:   "./data/quadrants",
			TimeoutMs: 10000,
		},
	}
}

// Load reads a yaml file over Defaults. Keys missing from the file keep their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("level.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("level.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	t.Generator.Mode = strings.ToLower(strings.TrimSpace(t.Generator.Mode))
	if t.Generator.Mode == "" {
		t.Generator.Mode = ModeLocal
	}
	// A single-value range may be written as max == min.
	if t.QuadrantSize.Max == t.QuadrantSize.Min {
		t.QuadrantSize.Max = t.QuadrantSize.Min + 1
	}
	if t.Scale.Max == t.Scale.Min {
		t.Scale.Max = t.Scale.Min + 1
	}
	if t.World.CellSize == 0 {
		t.World.CellSize = 1
	}
}

func (t Tuning) Validate() error {
	if t.QuadrantSize.Min < 2 || t.QuadrantSize.Max <= t.QuadrantSize.Min {
		return fmt.Errorf("quadrant_size must satisfy 2 <= min < max, got [%d,%d)", t.QuadrantSize.Min, t.QuadrantSize.Max)
	}
	if t.Scale.Min < 1 || t.Scale.Max <= t.Scale.Min {
		return fmt.Errorf("scale must satisfy 1 <= min < max, got [%d,%d)", t.Scale.Min, t.Scale.Max)
	}
	for name, p := range map[string]float64{
		"house_chance": t.Decor.HouseChance,
		"decal_chance": t.Decor.DecalChance,
		"tree_chance":  t.Decor.TreeChance,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("decor.%s must be in [0,1], got %v", name, p)
		}
	}
	if t.Decor.InteriorRadius < 0 {
		return fmt.Errorf("decor.interior_radius must be >= 0")
	}
	if t.Decor.MinSpacing < 0 {
		return fmt.Errorf("decor.min_spacing must be >= 0")
	}
	if t.Decor.TreeVariants < 0 || t.Decor.HouseVariants < 0 || t.Decor.DecalVariants < 0 {
		return fmt.Errorf("decor variant counts must be >= 0")
	}
	if t.World.CellSize <= 0 {
		return fmt.Errorf("world.cell_size must be > 0")
	}
	switch t.Generator.Mode {
	case ModeLocal:
	case ModeExec:
		if strings.TrimSpace(t.Generator.Binary) == "" {
			return fmt.Errorf("generator.binary must be set in exec mode")
		}
		if strings.TrimSpace(t.Generator.WorkDir) == "" {
			return fmt.Errorf("generator.work_dir must be set in exec mode")
		}
	default:
		return fmt.Errorf("unsupported generator.mode: %s", t.Generator.Mode)
	}
	if t.Generator.TimeoutMs < 0 {
		return fmt.Errorf("generator.timeout_ms must be >= 0")
	}
	return nil
}
