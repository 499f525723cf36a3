package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opennode-labs/fieldnode/internal/blob"
	"github.com/opennode-labs/fieldnode/internal/channel"
	"github.com/opennode-labs/fieldnode/internal/config"
	"github.com/opennode-labs/fieldnode/internal/database"
	"github.com/opennode-labs/fieldnode/internal/database/postgres"
	"github.com/opennode-labs/fieldnode/internal/export"
	"github.com/opennode-labs/fieldnode/internal/handler"
	"github.com/opennode-labs/fieldnode/internal/importer"
	"github.com/opennode-labs/fieldnode/internal/pull"
	"github.com/opennode-labs/fieldnode/internal/registry"
	"github.com/opennode-labs/fieldnode/internal/server"
	"github.com/opennode-labs/fieldnode/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)
	handler.InitValidator()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.RunMigrations(ctx, cfg.GetDBConnString()); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	pool, err := database.NewPool(cfg.GetDBConnString(),
		database.DefaultMaxConnections, 5*time.Minute, 30*time.Minute)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	reg, err := registry.Parse(cfg.NodePeers)
	if err != nil {
		slog.Error("Failed to parse node peers", "error", err)
		os.Exit(1)
	}

	blobs, err := blob.NewStore(cfg.BlobDir)
	if err != nil {
		slog.Error("Failed to open blob store", "error", err)
		os.Exit(1)
	}

	store := postgres.NewStore(pool)
	exportService := export.NewService(store, blobs)
	importService := importer.NewService(store, blobs, cfg.NodeID)
	pullService := pull.NewService(reg, importService, store, cfg.NodeID, cfg.SyncPageSize, cfg.PullTimeout)
	channelServer := channel.NewServer(reg, cfg.SessionTTL)

	syncWorker := worker.NewSyncWorker(pullService, reg, cfg.PullInterval)
	syncWorker.Start()

	srv := server.NewServer(cfg.Port, cfg.APIKey, cfg.TrustedProxies, pool,
		reg, channelServer, exportService, pullService, store)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("Node started",
		"node_id", cfg.NodeID,
		"node_name", cfg.NodeName,
		"peers", len(reg.List()),
		"pull_interval", cfg.PullInterval)

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		slog.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Error("Server forced shutdown", "error", err)
	}
	if err := syncWorker.Shutdown(shutdownCtx); err != nil {
		slog.Error("Sync worker shutdown failed", "error", err)
	}

	slog.Info("Node stopped")
}
