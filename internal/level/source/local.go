package source

import (
	"context"
	"math/rand"

	"islandgen/internal/level/anchors"
	"islandgen/internal/wanderer"
)

// Local runs the wanderer generator in-process.
type Local struct {
	MaxSteps int
}

func (l Local) Generate(ctx context.Context, req anchors.Request, seed int64) ([]string, error) {
	// A pass already cancelled or past its deadline is not a generator failure.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := wanderer.Generate(wanderer.Config{
		Wanderer: req.Wanderer,
		Seeker:   req.Seeker,
		Rows:     req.Rows,
		Cols:     req.Cols,
		MaxSteps: l.MaxSteps,
	}, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, fail(req.Slot, err)
	}
	return f.Lines(), nil
}
