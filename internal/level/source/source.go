// Package source produces the raw text grid of one quadrant, either by running the external
// terraingen process or by calling the same generator in-process.
package source

import (
	"context"
	"errors"
	"fmt"

	"islandgen/internal/level/anchors"
	"islandgen/internal/level/compose"
)

// ErrGenerator is wrapped by every GeneratorError.
var ErrGenerator = errors.New("quadrant generator failed")

type GeneratorError struct {
	Slot compose.Slot
	Err  error
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("quadrant %s generator: %v", e.Slot, e.Err)
}

func (e *GeneratorError) Unwrap() []error { return []error{ErrGenerator, e.Err} }

func fail(slot compose.Slot, err error) error {
	return &GeneratorError{Slot: slot, Err: err}
}

// Source returns the lines of one generated quadrant. Calls block until the quadrant is complete.
type Source interface {
	Generate(ctx context.Context, req anchors.Request, seed int64) ([]string, error)
}
