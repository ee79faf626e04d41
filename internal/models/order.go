package models

import (
	"time"

	"github.com/google/uuid"
)

const OrderStatusCreated = "created"

// Order is the merchant-side intent a payment is created against.
// Amount and currency are immutable once created.
type Order struct {
	ID         string    `gorm:"size:64;primaryKey" json:"id"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Amount     int64     `gorm:"not null" json:"amount"` // minor units
	Currency   string    `gorm:"size:3;not null;default:'INR'" json:"currency"`
	Receipt    string    `gorm:"size:255" json:"receipt"`
	Notes      JSON      `gorm:"type:jsonb" json:"notes"`
	Status     string    `gorm:"size:20;not null;default:'created'" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
