package repositories

import (
	"context"
	"errors"
	"time"

	"payflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettleOutcome is the result of a locked refund settlement.
type SettleOutcome int

const (
	// SettleSkipped means the refund was missing or no longer pending.
	SettleSkipped SettleOutcome = iota
	// SettleProcessed means the refund was committed as processed.
	SettleProcessed
	// SettleRejected means revalidation failed and the refund was
	// terminally rejected.
	SettleRejected
)

// RefundRepository provides access to refund records. The aggregate
// invariant (pending plus processed refund amounts never exceed the
// payment amount) is enforced under a payment row lock in both
// CreateGuarded and SettleLocked, so concurrent requests cannot
// overcommit.
type RefundRepository interface {
	GetByID(ctx context.Context, id string) (*models.Refund, error)

	// ActiveAmount sums pending and processed refund amounts for a payment.
	ActiveAmount(ctx context.Context, paymentID string) (int64, error)

	// CreateGuarded inserts the refund after re-checking, under a payment
	// row lock, that the payment is refundable and the amount fits within
	// what remains.
	CreateGuarded(ctx context.Context, r *models.Refund) error

	// RejectIfPending terminally rejects a refund that is still pending.
	RejectIfPending(ctx context.Context, id string) (bool, error)

	// SettleLocked commits the refund as processed after re-checking
	// eligibility in the same transaction, or rejects it if the payment
	// state no longer supports the refund.
	SettleLocked(ctx context.Context, id string, processedAt time.Time) (SettleOutcome, *models.Refund, error)
}

type refundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) RefundRepository {
	return &refundRepository{db: db}
}

func (r *refundRepository) GetByID(ctx context.Context, id string) (*models.Refund, error) {
	var refund models.Refund
	err := r.db.WithContext(ctx).First(&refund, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *refundRepository) ActiveAmount(ctx context.Context, paymentID string) (int64, error) {
	return activeAmount(r.db.WithContext(ctx), paymentID)
}

func activeAmount(tx *gorm.DB, paymentID string) (int64, error) {
	var total int64
	err := tx.Model(&models.Refund{}).
		Where("payment_id = ? AND status IN ?", paymentID,
			[]string{models.RefundStatusPending, models.RefundStatusProcessed}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *refundRepository) CreateGuarded(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payment, "id = ?", refund.PaymentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if payment.Status != models.PaymentStatusSuccess {
			return ErrPaymentNotRefundable
		}

		refunded, err := activeAmount(tx, payment.ID)
		if err != nil {
			return err
		}
		if refund.Amount > payment.Amount-refunded {
			return ErrRefundExceedsAmount
		}

		return tx.Create(refund).Error
	})
}

func (r *refundRepository) RejectIfPending(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("id = ? AND status = ?", id, models.RefundStatusPending).
		Update("status", models.RefundStatusRejected)
	return res.RowsAffected > 0, res.Error
}

func (r *refundRepository) SettleLocked(ctx context.Context, id string, processedAt time.Time) (SettleOutcome, *models.Refund, error) {
	outcome := SettleSkipped
	var refund models.Refund

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&refund, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if refund.Status != models.RefundStatusPending {
			return nil
		}

		var payment models.Payment
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payment, "id = ?", refund.PaymentID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		refunded, sumErr := activeAmount(tx, refund.PaymentID)
		if sumErr != nil {
			return sumErr
		}

		eligible := err == nil &&
			payment.Status == models.PaymentStatusSuccess &&
			refunded <= payment.Amount
		if !eligible {
			refund.Status = models.RefundStatusRejected
			outcome = SettleRejected
			return tx.Save(&refund).Error
		}

		at := processedAt
		refund.Status = models.RefundStatusProcessed
		refund.ProcessedAt = &at
		outcome = SettleProcessed
		return tx.Save(&refund).Error
	})
	if err != nil {
		return SettleSkipped, nil, err
	}
	if outcome == SettleSkipped {
		return outcome, nil, nil
	}
	return outcome, &refund, nil
}
