package payment

import "errors"

// Service errors
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrInvalidVPA        = errors.New("VPA format invalid")
	ErrCardMissing       = errors.New("card data missing")
	ErrInvalidCard       = errors.New("card validation failed")
	ErrExpiredCard       = errors.New("card expiry date invalid")
	ErrNotCapturable     = errors.New("payment not in capturable state")
)
