package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/chunkgrid/internal/api"
	"github.com/dgallion1/chunkgrid/internal/config"
	"github.com/dgallion1/chunkgrid/internal/gridstore"
	"github.com/dgallion1/chunkgrid/internal/stats"
)

func main() {
	cfg := config.Load()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	opts, err := cfg.GridOptions()
	if err != nil {
		log.Error("invalid grid options", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize grid registry.
	grids := gridstore.New(cfg.GridTTL, log)
	grids.Start(ctx, 5*time.Minute)
	latency := stats.NewLatency(time.Hour)

	// Initialize HTTP server.
	srv := api.NewServer(grids, latency, opts, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		grids.Stop()
	}()

	log.Info("starting chunkgrid", "port", cfg.Port, "chunk_size", opts.ChunkSize, "row_format", cfg.RowFormat)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
