package models

import (
	"time"

	"github.com/google/uuid"
)

// Webhook log statuses
const (
	WebhookStatusPending = "pending"
	WebhookStatusSuccess = "success"
	WebhookStatusFailed  = "failed"
)

// MaxWebhookAttempts bounds delivery retries; a log is terminal at
// success or once attempts reaches this limit.
const MaxWebhookAttempts = 5

// WebhookLog records one merchant notification and its delivery attempts.
// It is created when a domain event is emitted and mutated only by the
// webhook dispatcher.
type WebhookLog struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Event         string     `gorm:"size:50;not null" json:"event"`
	Payload       JSON       `gorm:"type:jsonb" json:"payload"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	LastAttemptAt *time.Time `json:"last_attempt_at"`
	NextRetryAt   *time.Time `json:"next_retry_at"`
	ResponseCode  *int       `json:"response_code"`
	ResponseBody  string     `json:"response_body"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Terminal reports whether delivery is finished for this log.
func (w *WebhookLog) Terminal() bool {
	return w.Status == WebhookStatusSuccess || w.Status == WebhookStatusFailed
}
