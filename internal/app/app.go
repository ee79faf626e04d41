// Package app wires repositories, services and the job mux from
// configuration. The server, worker and seed binaries all start from the
// same Build call so they agree on job names and dependencies.
package app

import (
	"context"
	"fmt"
	"time"

	"payflow/internal/config"
	"payflow/internal/metrics"
	"payflow/internal/queue"
	"payflow/internal/repositories"
	"payflow/internal/services/idempotency"
	"payflow/internal/services/merchant"
	"payflow/internal/services/payment"
	"payflow/internal/services/refund"
	"payflow/internal/services/simulation"
	"payflow/internal/services/webhook"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QueueName is the default Redis key prefix, shared by every binary.
const QueueName = "payflow"

// App holds the constructed components.
type App struct {
	DB    *gorm.DB
	Redis *redis.Client
	Queue *queue.Redis
	Mux   *queue.Mux

	Merchants   repositories.MerchantRepository
	Orders      repositories.OrderRepository
	PaymentRepo repositories.PaymentRepository
	Refunds     repositories.RefundRepository
	WebhookLogs repositories.WebhookLogRepository
	Idempotency repositories.IdempotencyRepository

	Dispatcher      *webhook.Dispatcher
	PaymentService  *payment.Service
	RefundService   *refund.Service
	MerchantService *merchant.Service
	Guard           *idempotency.Guard

	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// Build connects to postgres and redis and constructs the full service
// graph. Job handlers are registered on the returned mux.
func Build(logger *zap.Logger) (*App, error) {
	gateway := config.LoadGateway()

	db, err := repositories.InitDB(repositories.DBConfig{
		Host:            config.GetEnv("DB_HOST", "localhost"),
		Port:            config.GetEnv("DB_PORT", "5432"),
		User:            config.GetEnv("DB_USER", "postgres"),
		Password:        config.GetEnv("DB_PASSWORD", "postgres"),
		Name:            config.GetEnv("DB_NAME", "payflow"),
		SSLMode:         config.GetEnv("DB_SSLMODE", "disable"),
		MaxIdleConns:    config.GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    config.GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: time.Duration(config.GetIntEnv("DB_CONN_MAX_LIFETIME_MIN", 60)) * time.Minute,
		ConnMaxIdleTime: time.Duration(config.GetIntEnv("DB_CONN_MAX_IDLE_MIN", 30)) * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.GetEnv("REDIS_ADDR", "localhost:6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	mux := queue.NewMux()
	q := queue.NewRedis(redisClient, config.GetEnv("QUEUE_NAME", QueueName))
	metrics.RegisterQueueDepth(registry, func() int64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return q.Status(ctx).Pending
	})

	merchants := repositories.NewMerchantRepository(db)
	orders := repositories.NewOrderRepository(db)
	payments := repositories.NewPaymentRepository(db)
	refunds := repositories.NewRefundRepository(db)
	webhookLogs := repositories.NewWebhookLogRepository(db)
	idempotencyKeys := repositories.NewIdempotencyRepository(db)

	schedule := webhook.ScheduleFor(gateway.WebhookTestIntervals)
	dispatcher := webhook.NewDispatcher(webhookLogs, merchants, q, schedule, logger, m)

	simulator := simulation.NewFromConfig(gateway)
	paymentService := payment.NewService(orders, payments, q, dispatcher, simulator, logger)
	refundService := refund.NewService(payments, refunds, q, dispatcher, simulator, logger)
	merchantService := merchant.NewService(merchants, dispatcher, logger)
	guard := idempotency.NewGuard(idempotencyKeys)

	mux.Register(payment.JobProcess, paymentService.HandleProcess)
	mux.Register(payment.JobSettle, paymentService.HandleSettle)
	mux.Register(refund.JobProcess, refundService.HandleProcess)
	mux.Register(refund.JobSettle, refundService.HandleSettle)
	mux.Register(webhook.JobDeliver, dispatcher.HandleDeliver)

	return &App{
		DB:    db,
		Redis: redisClient,
		Queue: q,
		Mux:   mux,

		Merchants:   merchants,
		Orders:      orders,
		PaymentRepo: payments,
		Refunds:     refunds,
		WebhookLogs: webhookLogs,
		Idempotency: idempotencyKeys,

		Dispatcher:      dispatcher,
		PaymentService:  paymentService,
		RefundService:   refundService,
		MerchantService: merchantService,
		Guard:           guard,

		Metrics:  m,
		Registry: registry,
		Logger:   logger,
	}, nil
}

// Close releases the database and redis connections.
func (a *App) Close() {
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Logger.Warn("closing database", zap.Error(err))
		}
	}
	if err := a.Redis.Close(); err != nil {
		a.Logger.Warn("closing redis", zap.Error(err))
	}
}
