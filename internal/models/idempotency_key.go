package models

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey stores the exact response body of a keyed payment-creation
// request so repeats within the TTL window replay it verbatim. Expired
// records are treated as absent.
type IdempotencyKey struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idem_merchant_key" json:"merchant_id"`
	Key        string    `gorm:"size:255;not null;uniqueIndex:idx_idem_merchant_key" json:"key"`
	Response   string    `gorm:"type:text;not null" json:"response"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expired reports whether the record is past its TTL at the given instant.
func (k *IdempotencyKey) Expired(now time.Time) bool {
	return !k.ExpiresAt.After(now)
}
