// Package main is the entry point for the gateway API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payflow/internal/app"
	"payflow/internal/config"
	"payflow/internal/handlers"
	"payflow/internal/logger"
	"payflow/internal/middleware"
	"payflow/internal/queue"
	"payflow/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	log := logger.NewLogger("server")
	defer log.Sync()

	components, err := app.Build(log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer components.Close()

	if config.GetBoolEnv("SEED_TEST_MERCHANT", true) {
		if err := components.MerchantService.SeedTestMerchant(context.Background()); err != nil {
			log.Warn("seeding test merchant", zap.Error(err))
		}
	}

	// The API server can run its own workers so local development does
	// not need a second process. Production runs cmd/worker instead.
	var pool *queue.WorkerPool
	if config.GetBoolEnv("EMBEDDED_WORKERS", true) {
		pool = queue.NewWorkerPool(components.Queue, components.Mux, log, queue.WorkerPoolConfig{
			Workers:    config.GetIntEnv("WORKER_COUNT", 4),
			JobTimeout: time.Duration(config.GetIntEnv("QUEUE_JOB_TIMEOUT", 120)) * time.Second,
			Observer:   components.Metrics,
		})
		pool.Start(context.Background())
	}

	fiberApp := fiber.New(fiber.Config{
		AppName:      "payflow",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, X-Api-Key, X-Api-Secret, Idempotency-Key",
		AllowMethods: "GET,POST,PUT,DELETE",
	}))
	fiberApp.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(fiberApp, routes.Deps{
		Auth:      middleware.NewAPIKeyAuth(components.Merchants),
		Orders:    handlers.NewOrderHandler(components.Orders),
		Payments:  handlers.NewPaymentHandler(components.PaymentService, components.Guard, components.Orders, components.Merchants),
		Refunds:   handlers.NewRefundHandler(components.RefundService),
		Webhooks:  handlers.NewWebhookHandler(components.Dispatcher),
		Merchants: handlers.NewMerchantHandler(components.MerchantService),
		Health:    handlers.NewHealthHandler(components.DB, components.Queue, components.Queue),
		Registry:  components.Registry,
	})

	go func() {
		addr := ":" + config.GetEnv("PORT", "8000")
		if err := fiberApp.Listen(addr); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if pool != nil {
		pool.Stop()
	}
	if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
