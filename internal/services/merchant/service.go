// Package merchant manages webhook configuration and the seeded test
// merchant.
package merchant

import (
	"context"
	"errors"

	"payflow/internal/config"
	"payflow/internal/models"
	"payflow/internal/repositories"
	"payflow/internal/services/webhook"
	"payflow/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookConfig is the merchant-visible delivery configuration.
type WebhookConfig struct {
	WebhookURL    string `json:"webhook_url"`
	WebhookSecret string `json:"webhook_secret"`
}

type Service struct {
	merchants repositories.MerchantRepository
	emitter   webhook.Emitter
	logger    *zap.Logger
}

func NewService(merchants repositories.MerchantRepository, emitter webhook.Emitter, logger *zap.Logger) *Service {
	return &Service{merchants: merchants, emitter: emitter, logger: logger}
}

// GetWebhookConfig returns the merchant's current delivery configuration.
func (s *Service) GetWebhookConfig(m *models.Merchant) WebhookConfig {
	return WebhookConfig{WebhookURL: m.WebhookURL, WebhookSecret: m.WebhookSecret}
}

// UpdateWebhookURL sets the delivery URL and lazily generates a signing
// secret the first time one is needed.
func (s *Service) UpdateWebhookURL(ctx context.Context, m *models.Merchant, url string) (WebhookConfig, error) {
	m.WebhookURL = url
	if m.WebhookSecret == "" {
		m.WebhookSecret = utils.NewWebhookSecret()
	}
	if err := s.merchants.Update(ctx, m); err != nil {
		return WebhookConfig{}, err
	}
	return s.GetWebhookConfig(m), nil
}

// RegenerateSecret replaces the signing secret. Deliveries enqueued before
// the change sign with the new secret at delivery time.
func (s *Service) RegenerateSecret(ctx context.Context, m *models.Merchant) (string, error) {
	m.WebhookSecret = utils.NewWebhookSecret()
	if err := s.merchants.Update(ctx, m); err != nil {
		return "", err
	}
	return m.WebhookSecret, nil
}

// SendTestEvent pushes a canned payment.success notification through the
// normal delivery pipeline.
func (s *Service) SendTestEvent(ctx context.Context, m *models.Merchant) error {
	return s.emitter.Emit(ctx, m.ID, webhook.EventPaymentSuccess, webhook.TestEvent())
}

// Test merchant bootstrap defaults; override via environment.
var TestMerchantID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

// SeedTestMerchant creates the fixed test merchant if absent and
// backfills a webhook secret on older rows.
func (s *Service) SeedTestMerchant(ctx context.Context) error {
	email := config.GetEnv("TEST_MERCHANT_EMAIL", "test@example.com")
	secret := config.GetEnv("TEST_WEBHOOK_SECRET", "whsec_test_abc123")

	existing, err := s.merchants.GetByEmail(ctx, email)
	if err == nil {
		if existing.WebhookSecret == "" {
			existing.WebhookSecret = secret
			return s.merchants.Update(ctx, existing)
		}
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	m := &models.Merchant{
		ID:            TestMerchantID,
		Name:          "Test Merchant",
		Email:         email,
		APIKey:        config.GetEnv("TEST_API_KEY", "key_test_abc123"),
		APISecret:     config.GetEnv("TEST_API_SECRET", "secret_test_xyz789"),
		WebhookSecret: secret,
		IsActive:      true,
	}
	if err := s.merchants.Create(ctx, m); err != nil {
		return err
	}
	s.logger.Info("test merchant seeded", zap.String("email", email))
	return nil
}

// GetTestMerchant returns the seeded merchant, if present.
func (s *Service) GetTestMerchant(ctx context.Context) (*models.Merchant, error) {
	return s.merchants.GetByEmail(ctx, config.GetEnv("TEST_MERCHANT_EMAIL", "test@example.com"))
}
