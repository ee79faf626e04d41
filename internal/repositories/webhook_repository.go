package repositories

import (
	"context"
	"errors"

	"payflow/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookLogRepository provides access to webhook delivery logs.
type WebhookLogRepository interface {
	Create(ctx context.Context, log *models.WebhookLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WebhookLog, error)
	Update(ctx context.Context, log *models.WebhookLog) error
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]models.WebhookLog, int64, error)
}

type webhookLogRepository struct {
	db *gorm.DB
}

func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepository{db: db}
}

func (r *webhookLogRepository) Create(ctx context.Context, log *models.WebhookLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *webhookLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WebhookLog, error) {
	var log models.WebhookLog
	err := r.db.WithContext(ctx).First(&log, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *webhookLogRepository) Update(ctx context.Context, log *models.WebhookLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

func (r *webhookLogRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]models.WebhookLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.WebhookLog{}).Where("merchant_id = ?", merchantID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.WebhookLog
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error
	return logs, total, err
}
