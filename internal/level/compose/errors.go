package compose

import (
	"errors"
	"fmt"
)

// ErrMalformedQuadrant is wrapped by every QuadrantError.
var ErrMalformedQuadrant = errors.New("malformed quadrant")

// QuadrantError describes why a quadrant grid was rejected. Row is -1 when the problem is not
// tied to a single row.
type QuadrantError struct {
	Slot   Slot
	Row    int
	Reason string
}

func (e *QuadrantError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("quadrant %s row %d: %s", e.Slot, e.Row, e.Reason)
	}
	return fmt.Sprintf("quadrant %s: %s", e.Slot, e.Reason)
}

func (e *QuadrantError) Unwrap() error { return ErrMalformedQuadrant }

func malformed(slot Slot, row int, format string, args ...any) error {
	return &QuadrantError{Slot: slot, Row: row, Reason: fmt.Sprintf(format, args...)}
}
