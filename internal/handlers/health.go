package handlers

import (
	"context"
	"time"

	"payflow/internal/queue"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Pinger reports queue backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db     *gorm.DB
	pinger Pinger
	queue  queue.Queue
}

func NewHealthHandler(db *gorm.DB, pinger Pinger, q queue.Queue) *HealthHandler {
	return &HealthHandler{db: db, pinger: pinger, queue: q}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	dbStatus := "disconnected"
	if sqlDB, err := h.db.DB(); err == nil {
		if err := sqlDB.PingContext(c.Context()); err == nil {
			dbStatus = "connected"
		}
	}

	redisStatus := "disconnected"
	if h.pinger != nil && h.pinger.Ping(c.Context()) == nil {
		redisStatus = "connected"
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"database":  dbStatus,
		"redis":     redisStatus,
		"timestamp": iso(time.Now()),
	})
}

// JobStatus reports the queue's operational read model. Backend failures
// already degrade to an all-zero, stopped response inside Status.
func (h *HealthHandler) JobStatus(c *fiber.Ctx) error {
	return c.JSON(h.queue.Status(c.Context()))
}
