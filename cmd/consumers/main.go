package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stagedoor/cmd/consumers/jobs"
	"stagedoor/internal/config"
	"stagedoor/internal/consumers"
	"stagedoor/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Separate client id so the API and the consumers can share a
	// cluster.
	cfg.NATS.ClientID = "stagedoor-consumers"

	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		logger.Fatal("Failed to create consumer service", "error", err)
	}

	if err := consumerService.Start(); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconcile := jobs.NewReconcileJob(consumerService.Repos(), consumerService.Search())
	reconcile.Start(ctx)

	logger.Get().Info("Consumers service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down consumers service")

	reconcile.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := consumerService.Shutdown(shutdownCtx); err != nil {
		logger.Get().Error("Error during shutdown", "error", err)
	}

	logger.Get().Info("Consumers service stopped")
}
