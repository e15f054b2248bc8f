package protocol

import (
	"context"
	"errors"

	"islandgen/internal/level"
	"islandgen/internal/level/compose"
	"islandgen/internal/level/source"
)

const (
	// Protocol/transport validation.
	ErrBadRequest = "E_BAD_REQUEST"

	// Generation pass.
	ErrMalformedQuadrant = "E_MALFORMED_QUADRANT"
	ErrGeneratorFailed   = "E_GENERATOR_FAILED"
	ErrBusy              = "E_BUSY"
	ErrCancelled         = "E_CANCELLED"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:        {},
	ErrMalformedQuadrant: {},
	ErrGeneratorFailed:   {},
	ErrBusy:              {},
	ErrCancelled:         {},
	ErrInternal:          {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodeFor maps a generation error to its wire code.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, level.ErrBusy):
		return ErrBusy
	case errors.Is(err, compose.ErrMalformedQuadrant):
		return ErrMalformedQuadrant
	case errors.Is(err, source.ErrGenerator):
		// Timeouts surface as generator failures; a caller-side cancel does not.
		if errors.Is(err, context.Canceled) {
			return ErrCancelled
		}
		return ErrGeneratorFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCancelled
	}
	return ErrInternal
}
