package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shrike-indexer/shrike/internal/api"
	"github.com/shrike-indexer/shrike/internal/config"
	"github.com/shrike-indexer/shrike/internal/flamingo"
	"github.com/shrike-indexer/shrike/internal/ingester"
	"github.com/shrike-indexer/shrike/internal/neorpc"
	"github.com/shrike-indexer/shrike/internal/repository"
	"github.com/shrike-indexer/shrike/internal/stats"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		log.Fatalw("failed to resolve database path", "error", err)
	}
	repo, err := repository.Open(dbPath, log)
	if err != nil {
		log.Fatalw("failed to open store", "error", err, "path", dbPath)
	}
	defer repo.Close()
	log.Infow("store ready", "path", dbPath)

	node := neorpc.NewClient(cfg.RPC.BaseURL)
	prices := flamingo.NewClient("")
	indexer := ingester.NewService(node, prices, repo, ingester.Config{
		BatchSize:         uint64(cfg.Indexer.BatchSize),
		KeepAlive:         cfg.Indexer.KeepAlive,
		KeepAliveInterval: time.Duration(cfg.Indexer.KeepAliveInterval) * time.Second,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := stats.NewCollector(repo, log)
	go collector.Start(ctx)

	server := api.NewServer(cfg.Server.Port, repo, indexer, collector, log)
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatalw("server failed", "error", err)
		}
	case received := <-sig:
		log.Infow("shutting down", "signal", received.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnw("shutdown incomplete", "error", err)
	}
}
