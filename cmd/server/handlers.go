package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"islandgen/internal/level"
	"islandgen/internal/level/decor"
	"islandgen/internal/protocol"
	"islandgen/internal/runner"
)

type metricsSource interface {
	Metrics() level.Metrics
}

type app struct {
	gen     metricsSource
	run     *runner.Runner
	clients func() int
	idx     runtimeIndex

	passTimeout time.Duration
}

func (a *app) healthz(rw http.ResponseWriter, r *http.Request) {
	rw.WriteHeader(200)
	_, _ = rw.Write([]byte("ok"))
}

func (a *app) metrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
	m := a.gen.Metrics()
	busy := 0
	if a.run.Busy() {
		busy = 1
	}
	clients := 0
	if a.clients != nil {
		clients = a.clients()
	}
	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP islandgen_passes_total Successful generation passes.\n")
	fmt.Fprintf(rw, "# TYPE islandgen_passes_total counter\n")
	fmt.Fprintf(rw, "islandgen_passes_total %d\n", m.Passes)
	fmt.Fprintf(rw, "# HELP islandgen_pass_failures_total Failed generation passes.\n")
	fmt.Fprintf(rw, "# TYPE islandgen_pass_failures_total counter\n")
	fmt.Fprintf(rw, "islandgen_pass_failures_total %d\n", m.Failures)
	fmt.Fprintf(rw, "# HELP islandgen_pass_busy Whether a pass is running.\n")
	fmt.Fprintf(rw, "# TYPE islandgen_pass_busy gauge\n")
	fmt.Fprintf(rw, "islandgen_pass_busy %d\n", busy)
	fmt.Fprintf(rw, "# HELP islandgen_last_pass_ms Duration of the last pass in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE islandgen_last_pass_ms gauge\n")
	fmt.Fprintf(rw, "islandgen_last_pass_ms %.3f\n", m.LastDurationMS)
	fmt.Fprintf(rw, "# HELP islandgen_last_level_side Side of the last upscaled level.\n")
	fmt.Fprintf(rw, "# TYPE islandgen_last_level_side gauge\n")
	fmt.Fprintf(rw, "islandgen_last_level_side %d\n", 2*m.LastSize*m.LastScale)
	fmt.Fprintf(rw, "# HELP islandgen_last_placements Placements of the last level by category.\n")
	fmt.Fprintf(rw, "# TYPE islandgen_last_placements gauge\n")
	for _, c := range decor.Categories {
		fmt.Fprintf(rw, "islandgen_last_placements{category=%q} %d\n", string(c), m.LastCounts[c])
	}
	fmt.Fprintf(rw, "# HELP islandgen_ws_clients Connected websocket sessions.\n")
	fmt.Fprintf(rw, "# TYPE islandgen_ws_clients gauge\n")
	fmt.Fprintf(rw, "islandgen_ws_clients %d\n", clients)
	if a.idx != nil {
		fmt.Fprintf(rw, "# HELP islandgen_index_dropped_total Passes not written to the index.\n")
		fmt.Fprintf(rw, "# TYPE islandgen_index_dropped_total counter\n")
		fmt.Fprintf(rw, "islandgen_index_dropped_total %d\n", a.idx.Dropped())
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func httpStatusFor(code string) int {
	switch code {
	case protocol.ErrBusy:
		return http.StatusConflict
	case protocol.ErrBadRequest:
		return http.StatusBadRequest
	case protocol.ErrCancelled:
		return http.StatusServiceUnavailable
	case protocol.ErrMalformedQuadrant, protocol.ErrGeneratorFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// regenerate handles POST /admin/v1/regenerate[?seed=N].
func (a *app) regenerate(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	req := runner.Request{Trigger: runner.TriggerAdmin}
	if s := strings.TrimSpace(r.URL.Query().Get("seed")); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeJSON(rw, http.StatusBadRequest, protocol.NewError("", protocol.ErrBadRequest, "seed must be an integer"))
			return
		}
		req.Seed = &seed
	}
	ctx := r.Context()
	if a.passTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.passTimeout)
		defer cancel()
	}
	res, err := a.run.Run(ctx, req)
	if err != nil {
		code := protocol.CodeFor(err)
		writeJSON(rw, httpStatusFor(code), protocol.NewError("", code, err.Error()))
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{
		"ok":       true,
		"pass":     res.Level.Pass,
		"seed":     res.Level.Seed,
		"digest":   res.Level.Upscaled.Digest(),
		"snapshot": res.Snapshot,
	})
}

// latestLevel handles GET /admin/v1/level.
func (a *app) latestLevel(rw http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	res, ok := a.run.Latest()
	if !ok {
		http.Error(rw, "no level generated yet", http.StatusNotFound)
		return
	}
	writeJSON(rw, http.StatusOK, protocol.NewLevelDoc(res.Level))
}

// passes handles GET /admin/v1/passes[?limit=N] from the index.
func (a *app) passes(rw http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	if a.idx == nil {
		http.Error(rw, "index disabled", http.StatusNotFound)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := a.idx.RecentPasses(r.Context(), limit)
	if err != nil {
		writeJSON(rw, http.StatusInternalServerError, protocol.NewError("", protocol.ErrInternal, err.Error()))
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"passes": rows})
}

func (a *app) routes(mux *http.ServeMux, wsHandler http.HandlerFunc, enableAdmin bool) {
	mux.HandleFunc("/healthz", a.healthz)
	mux.HandleFunc("/metrics", a.metrics)
	mux.HandleFunc("/v1/ws", wsHandler)
	if enableAdmin {
		mux.HandleFunc("/admin/v1/regenerate", a.regenerate)
		mux.HandleFunc("/admin/v1/level", a.latestLevel)
		mux.HandleFunc("/admin/v1/passes", a.passes)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
