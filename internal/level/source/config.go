package source

import (
	"log"
	"time"

	"islandgen/internal/tuning"
)

// FromTuning builds the source selected by generator.mode.
func FromTuning(cfg tuning.Generator, logger *log.Logger) Source {
	if cfg.Mode == tuning.ModeExec {
		return &Exec{
			Binary:  cfg.Binary,
			WorkDir: cfg.WorkDir,
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
			Logger:  logger,
		}
	}
	return Local{MaxSteps: cfg.MaxSteps}
}
