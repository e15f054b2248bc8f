// Package prefs remembers small per-user CLI state (the last generated seed) in the platform data
// directory.
package prefs

import (
	"encoding/json"
	"fmt"

	"github.com/quasilyte/gdata/v2"
)

const (
	AppName = "islandgen"

	lastRunObject   = "levelgen"
	lastRunProperty = "last_run.json"
)

// LastRun is what levelgen stores after a successful pass.
type LastRun struct {
	Seed     int64  `json:"seed"`
	Pass     uint64 `json:"pass"`
	Digest   string `json:"digest"`
	Snapshot string `json:"snapshot,omitempty"`
}

// Store wraps a gdata manager. A nil manager turns every operation into a no-op so the CLI keeps
// working where no data directory is available.
type Store struct {
	m *gdata.Manager
}

// Open opens the store for appName; on failure it returns a usable no-op store with the error.
func Open(appName string) (*Store, error) {
	if appName == "" {
		appName = AppName
	}
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return &Store{}, fmt.Errorf("open prefs: %w", err)
	}
	return &Store{m: m}, nil
}

func (s *Store) Enabled() bool { return s != nil && s.m != nil }

// LastRun returns the stored run, or ok=false when none was saved.
func (s *Store) LastRun() (LastRun, bool, error) {
	var lr LastRun
	if !s.Enabled() || !s.m.ObjectPropExists(lastRunObject, lastRunProperty) {
		return lr, false, nil
	}
	data, err := s.m.LoadObjectProp(lastRunObject, lastRunProperty)
	if err != nil {
		return lr, false, fmt.Errorf("load last run: %w", err)
	}
	if err := json.Unmarshal(data, &lr); err != nil {
		return lr, false, fmt.Errorf("decode last run: %w", err)
	}
	return lr, true, nil
}

func (s *Store) SaveLastRun(lr LastRun) error {
	if !s.Enabled() {
		return nil
	}
	data, err := json.Marshal(lr)
	if err != nil {
		return err
	}
	if err := s.m.SaveObjectProp(lastRunObject, lastRunProperty, data); err != nil {
		return fmt.Errorf("save last run: %w", err)
	}
	return nil
}
