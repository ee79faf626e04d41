package handlers

import (
	"encoding/json"
	"errors"

	"payflow/internal/middleware"
	"payflow/internal/models"
	"payflow/internal/repositories"
	"payflow/internal/services/idempotency"
	"payflow/internal/services/payment"
	"payflow/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader deduplicates payment-creation requests.
const IdempotencyKeyHeader = "Idempotency-Key"

type PaymentHandler struct {
	payments  *payment.Service
	guard     *idempotency.Guard
	orders    repositories.OrderRepository
	merchants repositories.MerchantRepository
}

func NewPaymentHandler(
	payments *payment.Service,
	guard *idempotency.Guard,
	orders repositories.OrderRepository,
	merchants repositories.MerchantRepository,
) *PaymentHandler {
	return &PaymentHandler{payments: payments, guard: guard, orders: orders, merchants: merchants}
}

// createResponse serializes the creation body deterministically so an
// idempotent replay is byte-identical to the first response.
func createResponse(p *models.Payment) []byte {
	body := map[string]interface{}{
		"id":         p.ID,
		"order_id":   p.OrderID,
		"amount":     p.Amount,
		"currency":   p.Currency,
		"method":     p.Method,
		"status":     p.Status,
		"created_at": iso(p.CreatedAt),
	}
	switch details := p.Details().(type) {
	case models.UPIDetails:
		body["vpa"] = details.VPA
	case models.CardDetails:
		network := details.Network
		if network == "" {
			network = "unknown"
		}
		body["card_network"] = network
		body["card_last4"] = details.Last4
	}
	buf, _ := json.Marshal(body)
	return buf
}

func sendJSON(c *fiber.Ctx, status int, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(body)
}

func (h *PaymentHandler) renderCreateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, payment.ErrOrderNotFound):
		return response.NotFound(c, "Order not found")
	case errors.Is(err, payment.ErrUnsupportedMethod):
		return response.BadRequest(c, "Unsupported payment method")
	case errors.Is(err, payment.ErrInvalidVPA):
		return response.Error(c, fiber.StatusBadRequest, response.CodeInvalidVPA, "VPA format invalid")
	case errors.Is(err, payment.ErrCardMissing):
		return response.Error(c, fiber.StatusBadRequest, response.CodeInvalidCard, "Card data missing")
	case errors.Is(err, payment.ErrInvalidCard):
		return response.Error(c, fiber.StatusBadRequest, response.CodeInvalidCard, "Card validation failed")
	case errors.Is(err, payment.ErrExpiredCard):
		return response.Error(c, fiber.StatusBadRequest, response.CodeExpiredCard, "Card expiry date invalid")
	default:
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "failed to create payment")
	}
}

func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	merchant := middleware.MerchantFrom(c)

	var input payment.CreateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	key := c.Get(IdempotencyKeyHeader)
	if key != "" {
		stored, hit, err := h.guard.Lookup(c.Context(), merchant.ID, key)
		if err != nil {
			return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
		}
		if hit {
			return sendJSON(c, fiber.StatusCreated, []byte(stored))
		}
	}

	p, err := h.payments.Create(c.Context(), merchant, input)
	if err != nil {
		return h.renderCreateError(c, err)
	}

	body := createResponse(p)
	if key != "" {
		if err := h.guard.Store(c.Context(), merchant.ID, key, string(body)); err != nil {
			return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
		}
	}
	return sendJSON(c, fiber.StatusCreated, body)
}

// PublicCreate is the checkout-page variant: the merchant is resolved
// from the order rather than from credentials.
func (h *PaymentHandler) PublicCreate(c *fiber.Ctx) error {
	var input payment.CreateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	order, err := h.orders.GetByID(c.Context(), input.OrderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return response.NotFound(c, "Order not found")
	}
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}

	merchant, err := h.merchants.GetByID(c.Context(), order.MerchantID)
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}

	p, err := h.payments.Create(c.Context(), merchant, input)
	if err != nil {
		return h.renderCreateError(c, err)
	}
	return sendJSON(c, fiber.StatusCreated, createResponse(p))
}

func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	merchant := middleware.MerchantFrom(c)

	p, err := h.payments.Get(c.Context(), merchant, c.Params("id"))
	if errors.Is(err, payment.ErrPaymentNotFound) {
		return response.NotFound(c, "Payment not found")
	}
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}
	return c.JSON(paymentJSON(p))
}

func (h *PaymentHandler) PublicGet(c *fiber.Ctx) error {
	p, err := h.payments.Get(c.Context(), nil, c.Params("id"))
	if errors.Is(err, payment.ErrPaymentNotFound) {
		return response.NotFound(c, "Payment not found")
	}
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}
	return c.JSON(paymentJSON(p))
}

func (h *PaymentHandler) Capture(c *fiber.Ctx) error {
	merchant := middleware.MerchantFrom(c)

	var input struct {
		Amount int64 `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	p, err := h.payments.Capture(c.Context(), merchant, c.Params("id"), input.Amount)
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
		return response.NotFound(c, "Payment not found")
	case errors.Is(err, payment.ErrNotCapturable):
		return response.BadRequest(c, "Payment not in capturable state")
	case err != nil:
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}
	return c.JSON(paymentJSON(p))
}

// List is an unauthenticated read model used by the test dashboard.
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	var merchantID *uuid.UUID
	if raw := c.Query("merchant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.BadRequest(c, "invalid merchant_id")
		}
		merchantID = &id
	}

	payments, err := h.payments.List(c.Context(), merchantID, 200)
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}

	out := make([]map[string]interface{}, 0, len(payments))
	for i := range payments {
		out = append(out, paymentJSON(&payments[i]))
	}
	return c.JSON(out)
}
