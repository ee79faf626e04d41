package repositories

import "errors"

// Repository errors
var (
	ErrNotFound             = errors.New("record not found")
	ErrNotCapturable        = errors.New("payment not in capturable state")
	ErrPaymentNotRefundable = errors.New("payment is not refundable")
	ErrRefundExceedsAmount  = errors.New("refund amount exceeds available amount")
)
