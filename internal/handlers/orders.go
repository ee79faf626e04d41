// Package handlers contains the fiber HTTP handlers. They parse and
// validate requests, call into the services and render the gateway's
// JSON contracts; no business logic lives here.
package handlers

import (
	"errors"

	"payflow/internal/middleware"
	"payflow/internal/models"
	"payflow/internal/repositories"
	"payflow/internal/utils"
	"payflow/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// MinOrderAmount is the smallest accepted order amount in minor units.
const MinOrderAmount = 100

type OrderHandler struct {
	orders repositories.OrderRepository
}

func NewOrderHandler(orders repositories.OrderRepository) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	merchant := middleware.MerchantFrom(c)

	var input struct {
		Amount   int64       `json:"amount"`
		Currency string      `json:"currency"`
		Receipt  string      `json:"receipt"`
		Notes    models.JSON `json:"notes"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if input.Amount < MinOrderAmount {
		return response.BadRequest(c, "amount must be at least 100")
	}
	if input.Currency == "" {
		input.Currency = "INR"
	}

	order := &models.Order{
		ID:         utils.NewID("order"),
		MerchantID: merchant.ID,
		Amount:     input.Amount,
		Currency:   input.Currency,
		Receipt:    input.Receipt,
		Notes:      input.Notes,
		Status:     models.OrderStatusCreated,
	}
	if err := h.orders.Create(c.Context(), order); err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "failed to create order")
	}

	return response.Created(c, orderJSON(order))
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	merchant := middleware.MerchantFrom(c)

	order, err := h.orders.GetByID(c.Context(), c.Params("id"))
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && order.MerchantID != merchant.ID) {
		return response.NotFound(c, "Order not found")
	}
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}

	return c.JSON(orderJSON(order))
}

// PublicGet serves the hosted checkout page; it exposes only the fields
// needed to render an order and requires no credentials.
func (h *OrderHandler) PublicGet(c *fiber.Ctx) error {
	order, err := h.orders.GetByID(c.Context(), c.Params("id"))
	if errors.Is(err, repositories.ErrNotFound) {
		return response.NotFound(c, "Order not found")
	}
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}

	return c.JSON(fiber.Map{
		"id":       order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"status":   order.Status,
	})
}
