package models

import (
	"time"

	"github.com/google/uuid"
)

// Refund statuses
const (
	RefundStatusPending   = "pending"
	RefundStatusProcessed = "processed"
	RefundStatusRejected  = "rejected"
)

// Refund is a full or partial reversal of a successful payment. The sum of
// pending and processed refund amounts for a payment never exceeds the
// payment amount.
type Refund struct {
	ID          string     `gorm:"size:64;primaryKey" json:"id"`
	PaymentID   string     `gorm:"size:64;not null;index" json:"payment_id"`
	MerchantID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Amount      int64      `gorm:"not null" json:"amount"`
	Reason      string     `gorm:"size:255" json:"reason"`
	Status      string     `gorm:"size:20;not null" json:"status"`
	ProcessedAt *time.Time `json:"processed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Terminal reports whether the refund reached a final status.
func (r *Refund) Terminal() bool {
	return r.Status == RefundStatusProcessed || r.Status == RefundStatusRejected
}
