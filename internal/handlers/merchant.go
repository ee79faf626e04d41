package handlers

import (
	"errors"

	"payflow/internal/middleware"
	"payflow/internal/repositories"
	"payflow/internal/services/merchant"
	"payflow/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type MerchantHandler struct {
	merchants *merchant.Service
}

func NewMerchantHandler(merchants *merchant.Service) *MerchantHandler {
	return &MerchantHandler{merchants: merchants}
}

func (h *MerchantHandler) GetWebhookConfig(c *fiber.Ctx) error {
	m := middleware.MerchantFrom(c)
	return c.JSON(h.merchants.GetWebhookConfig(m))
}

func (h *MerchantHandler) UpdateWebhookConfig(c *fiber.Ctx) error {
	m := middleware.MerchantFrom(c)

	var input struct {
		WebhookURL string `json:"webhook_url"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	cfg, err := h.merchants.UpdateWebhookURL(c.Context(), m, input.WebhookURL)
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}
	return c.JSON(cfg)
}

func (h *MerchantHandler) RegenerateSecret(c *fiber.Ctx) error {
	m := middleware.MerchantFrom(c)

	secret, err := h.merchants.RegenerateSecret(c.Context(), m)
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}
	return c.JSON(fiber.Map{"webhook_secret": secret})
}

func (h *MerchantHandler) SendTestWebhook(c *fiber.Ctx) error {
	m := middleware.MerchantFrom(c)

	if err := h.merchants.SendTestEvent(c.Context(), m); err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}
	return c.JSON(fiber.Map{"status": "scheduled"})
}

// TestMerchant exposes the seeded merchant's credentials for the test
// harness and local dashboard.
func (h *MerchantHandler) TestMerchant(c *fiber.Ctx) error {
	m, err := h.merchants.GetTestMerchant(c.Context())
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{})
	}
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}

	return c.JSON(fiber.Map{
		"id":             m.ID.String(),
		"email":          m.Email,
		"api_key":        m.APIKey,
		"api_secret":     m.APISecret,
		"webhook_url":    m.WebhookURL,
		"webhook_secret": m.WebhookSecret,
		"seeded":         true,
	})
}
