package prefs

import (
	"fmt"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", home)
	s, err := Open(fmt.Sprintf("islandgen_test_%d", time.Now().UnixNano()))
	if err != nil {
		t.Skipf("gdata unavailable: %v", err)
	}
	return s
}

func TestLastRunRoundTrip(t *testing.T) {
	s := openTestStore(t)
	if _, ok, err := s.LastRun(); ok || err != nil {
		t.Fatalf("fresh store must be empty, ok=%v err=%v", ok, err)
	}
	want := LastRun{Seed: -42, Pass: 3, Digest: "abc", Snapshot: "out/3.level.zst"}
	if err := s.SaveLastRun(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.LastRun()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestDisabledStoreIsNoop(t *testing.T) {
	var s *Store
	if s.Enabled() {
		t.Fatalf("nil store must be disabled")
	}
	if err := s.SaveLastRun(LastRun{Seed: 1}); err != nil {
		t.Fatalf("save on nil store: %v", err)
	}
	if _, ok, err := s.LastRun(); ok || err != nil {
		t.Fatalf("load on nil store: ok=%v err=%v", ok, err)
	}
	empty := &Store{}
	if _, ok, _ := empty.LastRun(); ok {
		t.Fatalf("empty store must report no run")
	}
}
