package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"islandgen/internal/level"
	"islandgen/internal/level/source"
	persistlog "islandgen/internal/persistence/log"
	"islandgen/internal/runner"
	"islandgen/internal/transport/ws"
	"islandgen/internal/tuning"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		configDir   = flag.String("configs", "./configs", "config directory")
		tuningPath  = flag.String("tuning", "", "path to level.yaml (default: <configs>/level.yaml)")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		disableDB   = flag.Bool("disable_db", false, "disable the sqlite pass index")
		noSnapshots = flag.Bool("no_snapshots", false, "do not write a snapshot per pass")
		initialSeed = flag.Int64("seed", 0, "seed of the pass generated at startup (0: random)")
		warm        = flag.Bool("generate_on_start", true, "generate one level before accepting connections")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "level.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	idx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if digest, err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		} else {
			logger.Printf("tuning digest=%s", digest[:12])
		}
	}

	passLog := persistlog.NewPassLogger(*dataDir)
	defer passLog.Close()

	cfg := runner.Config{PassLog: passLog, Logger: logger}
	if !*noSnapshots {
		cfg.SnapshotDir = filepath.Join(*dataDir, "snapshots")
	}
	var counter runner.PassCounter
	if idx != nil {
		cfg.Index = idx
		counter = idx
	}
	lastPass, err := runner.LastPass(context.Background(), cfg.SnapshotDir, counter)
	if err != nil {
		logger.Fatalf("resume pass counter: %v", err)
	}
	if lastPass > 0 {
		logger.Printf("resuming after pass=%d", lastPass)
	}
	gen := level.New(tune, source.FromTuning(tune.Generator, logger), logger, level.WithLastPass(lastPass))
	run := runner.New(gen, cfg)

	passTimeout := envMillis("IG_PASS_TIMEOUT_MS", time.Minute)
	wsSrv := ws.NewServer(run, logger)
	wsSrv.PassTimeout = passTimeout
	run.Subscribe(wsSrv.Broadcast)

	ctx, cancel := signalContext()
	defer cancel()

	if *warm {
		req := runner.Request{Trigger: runner.TriggerAdmin}
		if *initialSeed != 0 {
			req.Seed = initialSeed
		}
		if _, err := run.Run(ctx, req); err != nil {
			logger.Printf("initial pass failed: %v", err)
		}
	}

	a := &app{gen: gen, run: run, clients: wsSrv.Clients, idx: idx, passTimeout: passTimeout}
	mux := http.NewServeMux()
	enableAdminHTTP := envBool("IG_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("IG_ENABLE_PPROF_HTTP", false)
	a.routes(mux, wsSrv.Handler(), enableAdminHTTP)
	if !enableAdminHTTP {
		logger.Printf("admin endpoints disabled (IG_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (generator=%s)", *addr, tune.Generator.Mode)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
