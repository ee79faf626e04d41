package handlers

import (
	"errors"

	"payflow/internal/middleware"
	"payflow/internal/services/refund"
	"payflow/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type RefundHandler struct {
	refunds *refund.Service
}

func NewRefundHandler(refunds *refund.Service) *RefundHandler {
	return &RefundHandler{refunds: refunds}
}

// Create handles POST /payments/:id/refunds.
func (h *RefundHandler) Create(c *fiber.Ctx) error {
	merchant := middleware.MerchantFrom(c)

	var input struct {
		Amount int64  `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	r, err := h.refunds.Create(c.Context(), merchant, c.Params("id"), input.Amount, input.Reason)
	switch {
	case errors.Is(err, refund.ErrPaymentNotFound):
		return response.NotFound(c, "Payment not found")
	case errors.Is(err, refund.ErrNotRefundable):
		return response.BadRequest(c, "Payment is not refundable")
	case errors.Is(err, refund.ErrInvalidAmount):
		return response.BadRequest(c, "amount must be a positive integer")
	case errors.Is(err, refund.ErrExceedsAvailable):
		return response.BadRequest(c, "Refund amount exceeds available amount")
	case err != nil:
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "failed to create refund")
	}

	return response.Created(c, refundJSON(r))
}

func (h *RefundHandler) Get(c *fiber.Ctx) error {
	merchant := middleware.MerchantFrom(c)

	r, err := h.refunds.Get(c.Context(), merchant, c.Params("id"))
	if errors.Is(err, refund.ErrRefundNotFound) {
		return response.NotFound(c, "Refund not found")
	}
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}
	return c.JSON(refundJSON(r))
}
