// Package routes defines the API routing configuration. Handlers and
// middleware are constructed by the caller and wired to paths here.
package routes

import (
	"payflow/internal/handlers"
	"payflow/internal/middleware"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries the constructed handlers.
type Deps struct {
	Auth      *middleware.APIKeyAuth
	Orders    *handlers.OrderHandler
	Payments  *handlers.PaymentHandler
	Refunds   *handlers.RefundHandler
	Webhooks  *handlers.WebhookHandler
	Merchants *handlers.MerchantHandler
	Health    *handlers.HealthHandler
	Registry  *prometheus.Registry
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", deps.Health.Health)
	if deps.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	// Public checkout endpoints, no credentials.
	api.Get("/orders/:id/public", deps.Orders.PublicGet)
	api.Post("/payments/public", deps.Payments.PublicCreate)
	api.Get("/payments/public/:id", deps.Payments.PublicGet)

	// Test and dashboard read models.
	api.Get("/test/jobs/status", deps.Health.JobStatus)
	api.Get("/test/merchant", deps.Merchants.TestMerchant)
	api.Get("/payments", deps.Payments.List)

	// Merchant API, key/secret authenticated.
	auth := deps.Auth.Handler
	api.Post("/orders", auth, deps.Orders.Create)
	api.Get("/orders/:id", auth, deps.Orders.Get)

	api.Post("/payments", auth, deps.Payments.Create)
	api.Get("/payments/:id", auth, deps.Payments.Get)
	api.Post("/payments/:id/capture", auth, deps.Payments.Capture)
	api.Post("/payments/:id/refunds", auth, deps.Refunds.Create)
	api.Get("/refunds/:id", auth, deps.Refunds.Get)

	api.Get("/webhooks", auth, deps.Webhooks.List)
	api.Post("/webhooks/:id/retry", auth, deps.Webhooks.Retry)

	api.Get("/merchant/webhook", auth, deps.Merchants.GetWebhookConfig)
	api.Put("/merchant/webhook", auth, deps.Merchants.UpdateWebhookConfig)
	api.Post("/merchant/webhook/regenerate-secret", auth, deps.Merchants.RegenerateSecret)
	api.Post("/merchant/webhook/test", auth, deps.Merchants.SendTestWebhook)
}
