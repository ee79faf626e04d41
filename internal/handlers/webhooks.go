package handlers

import (
	"errors"

	"payflow/internal/middleware"
	"payflow/internal/repositories"
	"payflow/internal/services/webhook"
	"payflow/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type WebhookHandler struct {
	dispatcher *webhook.Dispatcher
}

func NewWebhookHandler(dispatcher *webhook.Dispatcher) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher}
}

func (h *WebhookHandler) List(c *fiber.Ctx) error {
	merchant := middleware.MerchantFrom(c)

	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	logs, total, err := h.dispatcher.List(c.Context(), merchant, limit, offset)
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}

	data := make([]map[string]interface{}, 0, len(logs))
	for i := range logs {
		data = append(data, webhookLogJSON(&logs[i]))
	}
	return c.JSON(fiber.Map{
		"data":   data,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *WebhookHandler) Retry(c *fiber.Ctx) error {
	merchant := middleware.MerchantFrom(c)

	logID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Webhook log not found")
	}

	log, err := h.dispatcher.Retry(c.Context(), merchant, logID)
	if errors.Is(err, repositories.ErrNotFound) {
		return response.NotFound(c, "Webhook log not found")
	}
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}

	return c.JSON(fiber.Map{
		"id":      log.ID.String(),
		"status":  log.Status,
		"message": "Webhook retry scheduled",
	})
}
