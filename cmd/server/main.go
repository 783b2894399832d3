package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docsection/internal/api"
	"github.com/dgallion1/docsection/internal/config"
	"github.com/dgallion1/docsection/internal/pathstore"
	"github.com/dgallion1/docsection/internal/pipeline"
	"github.com/dgallion1/docsection/internal/version"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ps *pathstore.Client
	if cfg.PublishEnabled() {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
	} else {
		log.Warn("PATHSTORE_URL not set, publishing disabled")
	}

	orch := pipeline.NewOrchestrator(cfg, ps, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown. HTTP goes first so no Submit races the queue close.
	done := make(chan struct{})
	go func() {
		defer close(done)
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

	log.Info("starting docsection",
		"version", version.String("docsection"),
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"orphan_policy", cfg.OrphanPolicy,
		"publishing", cfg.PublishEnabled(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
