package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func lookupEnv(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// envBool reports the boolean value of key, falling back to def when unset or unparsable.
func envBool(key string, def bool) bool {
	v, ok := lookupEnv(key)
	if !ok {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envMillis reads a positive millisecond count from key.
func envMillis(key string, def time.Duration) time.Duration {
	v, ok := lookupEnv(key)
	if !ok {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// Admin routes default off outside local development.
func defaultEnableAdminHTTP() bool {
	env, _ := lookupEnv("IG_ENV")
	switch strings.ToLower(env) {
	case "staging", "production", "prod":
		return false
	}
	return true
}
