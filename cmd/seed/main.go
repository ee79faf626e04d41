// Package main seeds the shared test merchant so the checkout demo and
// integration tests have known credentials to authenticate with.
package main

import (
	"context"
	"time"

	"payflow/internal/app"
	"payflow/internal/config"
	"payflow/internal/logger"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	log := logger.NewLogger("seed")
	defer log.Sync()

	components, err := app.Build(log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := components.MerchantService.SeedTestMerchant(ctx); err != nil {
		log.Fatal("seeding test merchant", zap.Error(err))
	}

	m, err := components.MerchantService.GetTestMerchant(ctx)
	if err != nil {
		log.Fatal("reading test merchant back", zap.Error(err))
	}
	log.Info("test merchant ready",
		zap.String("id", m.ID.String()),
		zap.String("api_key", m.APIKey))
}
