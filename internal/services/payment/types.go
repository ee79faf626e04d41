package payment

// Queue job names handled by this package.
const (
	// JobProcess schedules the settlement continuation after the
	// simulated network delay.
	JobProcess = "payment.process"
	// JobSettle commits the simulated outcome.
	JobSettle = "payment.settle"
)

// Fixed error attributes recorded on a declined simulated payment.
const (
	FailureCode        = "PAYMENT_FAILED"
	FailureDescription = "Simulated payment gateway failure"
)

// CardInput carries raw card data for a card payment. Only the network
// and last four digits are retained.
type CardInput struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
	HolderName  string `json:"holder_name"`
}

// CreateInput is the validated command to create a payment for an order.
type CreateInput struct {
	OrderID string     `json:"order_id"`
	Method  string     `json:"method"`
	VPA     string     `json:"vpa"`
	Card    *CardInput `json:"card"`
}
