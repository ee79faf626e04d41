// Package main is the entry point for the standalone job worker. It
// consumes the same queue the API server enqueues to and runs the
// payment, refund and webhook delivery handlers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payflow/internal/app"
	"payflow/internal/config"
	"payflow/internal/logger"
	"payflow/internal/queue"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	log := logger.NewLogger("worker")
	defer log.Sync()

	components, err := app.Build(log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := components.Queue.Ping(ctx); err != nil {
		cancel()
		log.Fatal("redis unreachable", zap.Error(err))
	}
	cancel()

	pool := queue.NewWorkerPool(components.Queue, components.Mux, log, queue.WorkerPoolConfig{
		Workers:    config.GetIntEnv("WORKER_COUNT", 4),
		JobTimeout: time.Duration(config.GetIntEnv("QUEUE_JOB_TIMEOUT", 120)) * time.Second,
		Observer:   components.Metrics,
	})
	pool.Start(context.Background())
	log.Info("worker started", zap.Int("workers", config.GetIntEnv("WORKER_COUNT", 4)))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	pool.Stop()
}
