package main

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("IG_TEST_BOOL", " true ")
	t.Setenv("IG_TEST_BAD_BOOL", "maybe")
	if !envBool("IG_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	if !envBool("IG_TEST_BAD_BOOL", true) || envBool("IG_TEST_UNSET", false) {
		t.Fatalf("expected defaults for bad/unset bool")
	}

	t.Setenv("IG_TEST_MS", "250")
	t.Setenv("IG_TEST_NEG_MS", "-5")
	if got := envMillis("IG_TEST_MS", time.Second); got != 250*time.Millisecond {
		t.Fatalf("envMillis=%v", got)
	}
	if got := envMillis("IG_TEST_NEG_MS", time.Second); got != time.Second {
		t.Fatalf("negative should fall back, got %v", got)
	}
}

func TestDefaultEnableAdminHTTP(t *testing.T) {
	for _, tc := range []struct {
		env  string
		want bool
	}{
		{"", true},
		{"dev", true},
		{"staging", false},
		{"Production", false},
	} {
		t.Setenv("IG_ENV", tc.env)
		if got := defaultEnableAdminHTTP(); got != tc.want {
			t.Fatalf("IG_ENV=%q: got %v want %v", tc.env, got, tc.want)
		}
	}
}
