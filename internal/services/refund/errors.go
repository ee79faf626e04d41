package refund

import "errors"

// Service errors
var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrRefundNotFound   = errors.New("refund not found")
	ErrNotRefundable    = errors.New("payment is not refundable")
	ErrInvalidAmount    = errors.New("amount must be a positive integer")
	ErrExceedsAvailable = errors.New("refund amount exceeds available amount")
)
