// Package preview renders a level to a PNG for quick inspection.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"islandgen/internal/level"
	"islandgen/internal/level/decor"
	"islandgen/internal/level/terrain"
)

var (
	ColorWater  = color.RGBA{R: 0x2a, G: 0x5d, B: 0x8f, A: 0xff}
	ColorGrass  = color.RGBA{R: 0x5f, G: 0xa8, B: 0x3c, A: 0xff}
	ColorGround = color.RGBA{R: 0x9c, G: 0x74, B: 0x48, A: 0xff}

	categoryColors = map[decor.Category]color.RGBA{
		decor.Tree:       {R: 0x1d, G: 0x4d, B: 0x1a, A: 0xff},
		decor.House:      {R: 0xc8, G: 0x32, B: 0x2c, A: 0xff},
		decor.GrassDecal: {R: 0xe8, G: 0xd4, B: 0x4d, A: 0xff},
	}
	captionBG = color.RGBA{A: 0xff}
)

const captionHeight = 16

type Options struct {
	// PixelsPerCell scales every grid cell; values below 1 are treated as 1.
	PixelsPerCell int
	// Caption draws a text bar with the pass, seed and placement counts.
	Caption bool
}

// CellColor is the colour of one upscaled cell given both layers.
func CellColor(ground, grass terrain.Marker) color.RGBA {
	switch {
	case ground == terrain.Ground:
		return ColorGround
	case grass == terrain.Grass:
		return ColorGrass
	}
	return ColorWater
}

// Base draws one pixel per cell with placements on top.
func Base(l *level.Level) *image.RGBA {
	rows, cols := l.Upscaled.Rows(), l.Upscaled.Cols()
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			img.SetRGBA(c, r, CellColor(l.Ground.At(r, c), l.Grass.At(r, c)))
		}
	}
	for _, p := range l.Placements {
		if col, ok := categoryColors[p.Category]; ok {
			img.SetRGBA(p.Cell.Col, p.Cell.Row, col)
		}
	}
	return img
}

func Render(l *level.Level, opt Options) *image.RGBA {
	k := opt.PixelsPerCell
	if k < 1 {
		k = 1
	}
	base := Base(l)
	w, h := base.Bounds().Dx()*k, base.Bounds().Dy()*k
	extra := 0
	if opt.Caption {
		extra = captionHeight
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h+extra))
	xdraw.NearestNeighbor.Scale(out, image.Rect(0, 0, w, h), base, base.Bounds(), xdraw.Src, nil)

	if opt.Caption {
		xdraw.Draw(out, image.Rect(0, h, w, h+extra), image.NewUniform(captionBG), image.Point{}, xdraw.Src)
		c := l.Counts()
		d := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(color.White),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(2, h+extra-4),
		}
		d.DrawString(fmt.Sprintf("#%d seed %d  H%d T%d D%d", l.Pass, l.Seed, c[decor.House], c[decor.Tree], c[decor.GrassDecal]))
	}
	return out
}

func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
