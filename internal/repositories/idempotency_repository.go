package repositories

import (
	"context"
	"errors"

	"payflow/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdempotencyRepository provides access to stored idempotency records.
type IdempotencyRepository interface {
	Get(ctx context.Context, merchantID uuid.UUID, key string) (*models.IdempotencyKey, error)
	Create(ctx context.Context, record *models.IdempotencyKey) error
	Delete(ctx context.Context, record *models.IdempotencyKey) error
}

type idempotencyRepository struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) Get(ctx context.Context, merchantID uuid.UUID, key string) (*models.IdempotencyKey, error) {
	var record models.IdempotencyKey
	err := r.db.WithContext(ctx).
		First(&record, "merchant_id = ? AND key = ?", merchantID, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, record *models.IdempotencyKey) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *idempotencyRepository) Delete(ctx context.Context, record *models.IdempotencyKey) error {
	return r.db.WithContext(ctx).Delete(record).Error
}
