package models

import (
	"time"

	"github.com/google/uuid"
)

// Merchant owns orders, payments, refunds and webhook logs. API access is
// authenticated by the key/secret pair; webhook delivery is configured by
// WebhookURL and signed with WebhookSecret.
type Merchant struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Email         string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	APIKey        string    `gorm:"column:api_key;size:64;not null;uniqueIndex" json:"api_key"`
	APISecret     string    `gorm:"column:api_secret;size:64;not null" json:"-"`
	WebhookURL    string    `json:"webhook_url"`
	WebhookSecret string    `gorm:"size:64" json:"-"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
