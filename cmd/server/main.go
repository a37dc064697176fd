package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/sefreader/internal/api"
	"github.com/dgallion1/sefreader/internal/config"
	"github.com/dgallion1/sefreader/internal/instance"
	"github.com/dgallion1/sefreader/internal/pathstore"
	"github.com/dgallion1/sefreader/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	lock, err := instance.Acquire(cfg.LockPath)
	if err != nil {
		log.Error("cannot start", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Publishing is optional.
	var ps *pathstore.Client
	if cfg.PathstoreURL != "" {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
	} else {
		log.Warn("PATHSTORE_URL not set, jobs will be analyzed but not published")
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, ps, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting sefreader",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"pairing", cfg.Pairing,
		"lock", lock.Path(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		lock.Release()
		os.Exit(1)
	}
	<-stopped
	log.Info("stopped")
}
