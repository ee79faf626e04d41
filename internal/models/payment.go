package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment methods
const (
	MethodUPI  = "upi"
	MethodCard = "card"
)

// Payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Payment is a single attempt to pay an order. Amount and currency are
// copied from the order at creation. Captured may only become true while
// the payment is in the success status.
type Payment struct {
	ID         string    `gorm:"size:64;primaryKey" json:"id"`
	OrderID    string    `gorm:"size:64;not null;index" json:"order_id"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Amount     int64     `gorm:"not null" json:"amount"`
	Currency   string    `gorm:"size:3;not null;default:'INR'" json:"currency"`
	Method     string    `gorm:"size:20;not null" json:"method"`
	Status     string    `gorm:"size:20;not null;index" json:"status"`
	Captured   bool      `gorm:"not null;default:false" json:"captured"`

	// Method-specific columns; exactly one variant is populated,
	// selected by Method. Read through Details.
	VPA         string `gorm:"size:255" json:"-"`
	CardNetwork string `gorm:"size:20" json:"-"`
	CardLast4   string `gorm:"size:4" json:"-"`

	ErrorCode        string    `gorm:"size:50" json:"error_code,omitempty"`
	ErrorDescription string    `json:"error_description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MethodDetails is the tagged union of method-specific payment fields.
type MethodDetails interface {
	isMethodDetails()
}

// UPIDetails carries the fields of a UPI payment.
type UPIDetails struct {
	VPA string
}

// CardDetails carries the fields of a card payment.
type CardDetails struct {
	Network string
	Last4   string
}

func (UPIDetails) isMethodDetails()  {}
func (CardDetails) isMethodDetails() {}

// Details returns the method-specific variant for this payment.
func (p *Payment) Details() MethodDetails {
	if p.Method == MethodUPI {
		return UPIDetails{VPA: p.VPA}
	}
	return CardDetails{Network: p.CardNetwork, Last4: p.CardLast4}
}

// Terminal reports whether the payment reached a final status.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}
