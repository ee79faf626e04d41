// Package middleware provides HTTP middleware for the gateway API.
package middleware

import (
	"errors"

	"payflow/internal/models"
	"payflow/internal/repositories"
	"payflow/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const merchantLocal = "merchant"

// APIKeyAuth resolves the calling merchant from the X-Api-Key and
// X-Api-Secret headers and stores it on the request context. Unknown
// keys, wrong secrets and inactive merchants all read as the same
// authentication error.
type APIKeyAuth struct {
	merchants repositories.MerchantRepository
}

func NewAPIKeyAuth(merchants repositories.MerchantRepository) *APIKeyAuth {
	return &APIKeyAuth{merchants: merchants}
}

func (m *APIKeyAuth) Handler(c *fiber.Ctx) error {
	apiKey := c.Get("X-Api-Key")
	apiSecret := c.Get("X-Api-Secret")
	if apiKey == "" || apiSecret == "" {
		return response.Unauthorized(c)
	}

	merchant, err := m.merchants.GetByAPIKey(c.Context(), apiKey)
	if errors.Is(err, repositories.ErrNotFound) {
		return response.Unauthorized(c)
	}
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.CodeBadRequest, "internal error")
	}
	if merchant.APISecret != apiSecret || !merchant.IsActive {
		return response.Unauthorized(c)
	}

	c.Locals(merchantLocal, merchant)
	return c.Next()
}

// MerchantFrom returns the authenticated merchant stored by APIKeyAuth.
func MerchantFrom(c *fiber.Ctx) *models.Merchant {
	merchant, _ := c.Locals(merchantLocal).(*models.Merchant)
	return merchant
}
