package repositories

import (
	"context"
	"errors"

	"payflow/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository provides access to payment records. Settle and Capture
// run inside row-locked transactions so concurrent workers and API calls
// cannot race past each other's state checks.
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	List(ctx context.Context, merchantID *uuid.UUID, limit int) ([]models.Payment, error)

	// SettleIfPending applies the mutation only when the payment is still
	// pending, under a row lock. Returns the payment and whether the
	// mutation was applied; a re-delivered settle job is a no-op.
	SettleIfPending(ctx context.Context, id string, apply func(p *models.Payment)) (*models.Payment, bool, error)

	// Capture marks the payment captured when it is in the success status
	// and the requested amount matches exactly. Any other state returns
	// ErrNotCapturable without mutation.
	Capture(ctx context.Context, id string, amount int64) (*models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) List(ctx context.Context, merchantID *uuid.UUID, limit int) ([]models.Payment, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if merchantID != nil {
		q = q.Where("merchant_id = ?", *merchantID)
	}
	var payments []models.Payment
	err := q.Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) SettleIfPending(ctx context.Context, id string, apply func(p *models.Payment)) (*models.Payment, bool, error) {
	var payment models.Payment
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payment, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if payment.Status != models.PaymentStatusPending {
			return nil
		}
		apply(&payment)
		applied = true
		return tx.Save(&payment).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &payment, applied, nil
}

func (r *paymentRepository) Capture(ctx context.Context, id string, amount int64) (*models.Payment, error) {
	var payment models.Payment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payment, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if payment.Status != models.PaymentStatusSuccess || amount != payment.Amount {
			return ErrNotCapturable
		}
		payment.Captured = true
		return tx.Save(&payment).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
