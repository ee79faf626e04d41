package repositories

import (
	"context"
	"errors"

	"payflow/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MerchantRepository provides access to merchant records.
type MerchantRepository interface {
	Create(ctx context.Context, m *models.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.Merchant, error)
	GetByEmail(ctx context.Context, email string) (*models.Merchant, error)
	Update(ctx context.Context, m *models.Merchant) error
}

type merchantRepository struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) Create(ctx context.Context, m *models.Merchant) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *merchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).First(&merchant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *merchantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).First(&merchant, "api_key = ?", apiKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *merchantRepository) GetByEmail(ctx context.Context, email string) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).First(&merchant, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *merchantRepository) Update(ctx context.Context, m *models.Merchant) error {
	return r.db.WithContext(ctx).Save(m).Error
}
