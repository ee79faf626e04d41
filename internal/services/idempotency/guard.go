// Package idempotency deduplicates keyed payment-creation requests by
// replaying the stored response within a TTL window.
package idempotency

import (
	"context"
	"errors"
	"time"

	"payflow/internal/models"
	"payflow/internal/repositories"

	"github.com/google/uuid"
)

// TTL is how long a stored response stays replayable.
const TTL = 24 * time.Hour

// Guard looks up and stores merchant-scoped idempotency records.
type Guard struct {
	records repositories.IdempotencyRepository
	now     func() time.Time
}

func NewGuard(records repositories.IdempotencyRepository) *Guard {
	return &Guard{records: records, now: time.Now}
}

// Lookup returns the stored response body for a non-expired record.
// Expired records are deleted and treated as absent, so the caller
// proceeds with a fresh creation.
func (g *Guard) Lookup(ctx context.Context, merchantID uuid.UUID, key string) (string, bool, error) {
	record, err := g.records.Get(ctx, merchantID, key)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if record.Expired(g.now()) {
		if err := g.records.Delete(ctx, record); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return record.Response, true, nil
}

// Store persists the exact response body for later replay.
func (g *Guard) Store(ctx context.Context, merchantID uuid.UUID, key, body string) error {
	return g.records.Create(ctx, &models.IdempotencyKey{
		MerchantID: merchantID,
		Key:        key,
		Response:   body,
		ExpiresAt:  g.now().Add(TTL),
	})
}
