// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/form019-finder/internal/cache"
	"github.com/form019-finder/internal/config"
	"github.com/form019-finder/internal/events"
	"github.com/form019-finder/internal/jobs"
	"github.com/form019-finder/internal/logger"
	"github.com/form019-finder/internal/notify"
	"github.com/form019-finder/internal/pdf"
	"github.com/form019-finder/internal/scanner"
	"github.com/form019-finder/internal/server"
	"github.com/form019-finder/internal/walker"
	"github.com/form019-finder/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	loader := config.NewLoader("form019-server")
	flags := loader.Flags()
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: form019-server [flags]\n\nServes the FORM-019 finder web UI.\n\nFlags:\n")
		flags.PrintDefaults()
	}

	cfg, err := loader.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	log, err := logger.Init(cfg.Log.File, level)
	if err != nil {
		logger.Fatalf("Failed to initialize logger: %v", err)
	}
	defer log.Close()
	log.Printf("Using config %s", loader.ConfigFile())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, memStore, closeStore, err := openJobStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open job store: %v", err)
	}
	defer closeStore()

	broadcaster := events.NewBroadcaster()
	tracker := jobs.NewTracker(store, broadcaster)

	opener, err := pdf.NewOpener(cfg.Scan.PDFBackend, cfg.Scan.MaxFileSize)
	if err != nil {
		log.Fatalf("Failed to create PDF opener: %v", err)
	}

	var pageCache scanner.PageCache
	if cfg.Cache.Enabled {
		c, err := cache.Open(cfg.Cache.Dir)
		if err != nil {
			log.Warnf("Extraction cache disabled: %v", err)
		} else {
			defer c.Close()
			pageCache = c
			log.Printf("Extraction cache at %s", cfg.Cache.Dir)
		}
	}

	notifier := notify.NewDesktop(cfg.Notify.Enabled)
	orch := worker.New(
		tracker,
		walker.New(log),
		scanner.New(opener, pageCache, log),
		notifier,
		worker.Options{KeepPartialResults: cfg.Scan.KeepPartialResults},
		log,
	)

	srv := server.New(orch, tracker, broadcaster,
		server.NewClientLimiter(cfg.RateLimit.Every, cfg.RateLimit.Burst),
		settingsFrom(cfg), log)

	loader.Watch(func(next *config.Config) {
		if lvl, err := logger.ParseLevel(next.Log.Level); err == nil {
			log.SetLevel(lvl)
		}
		notifier.SetEnabled(next.Notify.Enabled)
		orch.SetKeepPartialResults(next.Scan.KeepPartialResults)
		srv.UpdateSettings(settingsFrom(next))
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("HTTP server listening on http://%s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if memStore != nil {
		g.Go(func() error {
			return memStore.RunJanitor(gctx, cfg.Jobs.SweepInterval)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warnf("HTTP server shutdown error: %v", err)
		}
		if err := orch.Wait(shutdownCtx); err != nil {
			log.Warnf("Scans still running at shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Errorf("Server error: %v", err)
		os.Exit(1)
	}
	log.Printf("Server stopped")
}

// openJobStore returns the configured store. memStore is non-nil only for the
// in-memory backend, which needs a janitor.
func openJobStore(ctx context.Context, cfg *config.Config) (jobs.Store, *jobs.MemoryStore, func(), error) {
	switch cfg.Jobs.Store {
	case "redis":
		client, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		return jobs.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.Jobs.Retention), nil, func() { client.Close() }, nil
	default:
		m := jobs.NewMemoryStore(cfg.Jobs.Retention)
		return m, m, func() {}, nil
	}
}

func settingsFrom(cfg *config.Config) server.Settings {
	return server.Settings{
		BaseDir:     cfg.Scan.BaseDir,
		UnitFolders: cfg.Scan.UnitFolders,
		PartTypes:   cfg.Scan.PartTypes,
	}
}
