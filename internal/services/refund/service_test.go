package refund

import (
	"context"
	"testing"
	"time"

	"payflow/internal/models"
	"payflow/internal/queue"
	"payflow/internal/repositories"
	"payflow/internal/services/simulation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePaymentRepo struct {
	payments map[string]*models.Payment
}

func (r *fakePaymentRepo) Create(_ context.Context, p *models.Payment) error {
	r.payments[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id string) (*models.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

func (r *fakePaymentRepo) List(_ context.Context, _ *uuid.UUID, _ int) ([]models.Payment, error) {
	return nil, nil
}

func (r *fakePaymentRepo) SettleIfPending(_ context.Context, id string, apply func(p *models.Payment)) (*models.Payment, bool, error) {
	return nil, false, repositories.ErrNotFound
}

func (r *fakePaymentRepo) Capture(_ context.Context, _ string, _ int64) (*models.Payment, error) {
	return nil, repositories.ErrNotCapturable
}

// fakeRefundRepo mirrors the transactional guards in memory: the active
// amount is recomputed from stored refunds on every check.
type fakeRefundRepo struct {
	payments *fakePaymentRepo
	refunds  map[string]*models.Refund
}

func (r *fakeRefundRepo) GetByID(_ context.Context, id string) (*models.Refund, error) {
	ref, ok := r.refunds[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return ref, nil
}

func (r *fakeRefundRepo) ActiveAmount(_ context.Context, paymentID string) (int64, error) {
	var total int64
	for _, ref := range r.refunds {
		if ref.PaymentID == paymentID && ref.Status != models.RefundStatusRejected {
			total += ref.Amount
		}
	}
	return total, nil
}

func (r *fakeRefundRepo) CreateGuarded(ctx context.Context, ref *models.Refund) error {
	p, ok := r.payments.payments[ref.PaymentID]
	if !ok {
		return repositories.ErrNotFound
	}
	if p.Status != models.PaymentStatusSuccess {
		return repositories.ErrPaymentNotRefundable
	}
	active, _ := r.ActiveAmount(ctx, ref.PaymentID)
	if active+ref.Amount > p.Amount {
		return repositories.ErrRefundExceedsAmount
	}
	r.refunds[ref.ID] = ref
	return nil
}

func (r *fakeRefundRepo) RejectIfPending(_ context.Context, id string) (bool, error) {
	ref, ok := r.refunds[id]
	if !ok {
		return false, repositories.ErrNotFound
	}
	if ref.Status != models.RefundStatusPending {
		return false, nil
	}
	ref.Status = models.RefundStatusRejected
	return true, nil
}

func (r *fakeRefundRepo) SettleLocked(ctx context.Context, id string, processedAt time.Time) (repositories.SettleOutcome, *models.Refund, error) {
	ref, ok := r.refunds[id]
	if !ok {
		return repositories.SettleSkipped, nil, nil
	}
	if ref.Status != models.RefundStatusPending {
		return repositories.SettleSkipped, ref, nil
	}
	p, ok := r.payments.payments[ref.PaymentID]
	if !ok || p.Status != models.PaymentStatusSuccess {
		ref.Status = models.RefundStatusRejected
		return repositories.SettleRejected, ref, nil
	}
	active, _ := r.ActiveAmount(ctx, ref.PaymentID)
	if active > p.Amount {
		ref.Status = models.RefundStatusRejected
		return repositories.SettleRejected, ref, nil
	}
	ref.Status = models.RefundStatusProcessed
	ref.ProcessedAt = &processedAt
	return repositories.SettleProcessed, ref, nil
}

type enqueued struct {
	delay time.Duration
	job   string
	id    string
}

type recorderQueue struct {
	entries []enqueued
}

func (q *recorderQueue) Enqueue(_ context.Context, job, id string) error {
	q.entries = append(q.entries, enqueued{job: job, id: id})
	return nil
}

func (q *recorderQueue) EnqueueIn(_ context.Context, delay time.Duration, job, id string) error {
	q.entries = append(q.entries, enqueued{delay: delay, job: job, id: id})
	return nil
}

func (q *recorderQueue) Status(_ context.Context) queue.Status {
	return queue.Status{}
}

type recorderEmitter struct {
	events []string
}

func (e *recorderEmitter) Emit(_ context.Context, _ uuid.UUID, event string, _ models.JSON) error {
	e.events = append(e.events, event)
	return nil
}

type fixture struct {
	service  *Service
	payments *fakePaymentRepo
	refunds  *fakeRefundRepo
	queue    *recorderQueue
	emitter  *recorderEmitter
	merchant *models.Merchant
	payment  *models.Payment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	merchant := &models.Merchant{ID: uuid.New(), Name: "Test", IsActive: true}
	payment := &models.Payment{
		ID:         "pay_refundable000001",
		MerchantID: merchant.ID,
		Amount:     50000,
		Status:     models.PaymentStatusSuccess,
	}

	payments := &fakePaymentRepo{payments: map[string]*models.Payment{payment.ID: payment}}
	refunds := &fakeRefundRepo{payments: payments, refunds: map[string]*models.Refund{}}
	q := &recorderQueue{}
	emitter := &recorderEmitter{}

	return &fixture{
		service:  NewService(payments, refunds, q, emitter, simulation.Fixed{Delay: 4 * time.Second}, zap.NewNop()),
		payments: payments,
		refunds:  refunds,
		queue:    q,
		emitter:  emitter,
		merchant: merchant,
		payment:  payment,
	}
}

func TestCreate(t *testing.T) {
	t.Run("creates a pending refund and enqueues processing", func(t *testing.T) {
		f := newFixture(t)

		r, err := f.service.Create(context.Background(), f.merchant, f.payment.ID, 20000, "requested by customer")
		require.NoError(t, err)
		assert.Equal(t, models.RefundStatusPending, r.Status)
		assert.Contains(t, r.ID, "rfnd_")

		require.Len(t, f.queue.entries, 1)
		assert.Equal(t, JobProcess, f.queue.entries[0].job)
		assert.Equal(t, []string{"refund.created"}, f.emitter.events)
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(context.Background(), f.merchant, "pay_missing", 100, "")
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})

	t.Run("cross-merchant payment reads as not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(context.Background(), &models.Merchant{ID: uuid.New()}, f.payment.ID, 100, "")
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})

	t.Run("non-success payment is not refundable", func(t *testing.T) {
		f := newFixture(t)
		f.payment.Status = models.PaymentStatusPending
		_, err := f.service.Create(context.Background(), f.merchant, f.payment.ID, 100, "")
		assert.ErrorIs(t, err, ErrNotRefundable)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(context.Background(), f.merchant, f.payment.ID, 0, "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("aggregate amount cannot exceed the payment", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Create(context.Background(), f.merchant, f.payment.ID, 25000, "first")
		require.NoError(t, err)

		// 25000 already pending out of 50000; 30000 more would overcommit.
		_, err = f.service.Create(context.Background(), f.merchant, f.payment.ID, 30000, "second")
		assert.ErrorIs(t, err, ErrExceedsAvailable)

		// An exact fit for the remainder is fine.
		_, err = f.service.Create(context.Background(), f.merchant, f.payment.ID, 25000, "third")
		assert.NoError(t, err)
	})
}

func TestHandleProcess(t *testing.T) {
	t.Run("eligible refund gets a delayed settlement", func(t *testing.T) {
		f := newFixture(t)
		r, err := f.service.Create(context.Background(), f.merchant, f.payment.ID, 20000, "")
		require.NoError(t, err)
		f.queue.entries = nil

		require.NoError(t, f.service.HandleProcess(context.Background(), r.ID))

		require.Len(t, f.queue.entries, 1)
		assert.Equal(t, JobSettle, f.queue.entries[0].job)
		assert.Equal(t, 4*time.Second, f.queue.entries[0].delay)
	})

	t.Run("refund is rejected when the payment regressed", func(t *testing.T) {
		f := newFixture(t)
		r, err := f.service.Create(context.Background(), f.merchant, f.payment.ID, 20000, "")
		require.NoError(t, err)
		f.queue.entries = nil
		f.emitter.events = nil

		f.payment.Status = models.PaymentStatusFailed

		require.NoError(t, f.service.HandleProcess(context.Background(), r.ID))

		assert.Equal(t, models.RefundStatusRejected, r.Status)
		assert.Empty(t, f.queue.entries, "rejected refund must not settle")
		assert.Empty(t, f.emitter.events, "rejection emits no event")
	})

	t.Run("terminal refund is a no-op", func(t *testing.T) {
		f := newFixture(t)
		r := &models.Refund{ID: "rfnd_done", PaymentID: f.payment.ID, Status: models.RefundStatusProcessed}
		f.refunds.refunds[r.ID] = r

		require.NoError(t, f.service.HandleProcess(context.Background(), r.ID))
		assert.Empty(t, f.queue.entries)
	})

	t.Run("unknown refund is a no-op", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.service.HandleProcess(context.Background(), "rfnd_missing"))
		assert.Empty(t, f.queue.entries)
	})
}

func TestHandleSettle(t *testing.T) {
	t.Run("processes the refund and emits the event", func(t *testing.T) {
		f := newFixture(t)
		r, err := f.service.Create(context.Background(), f.merchant, f.payment.ID, 20000, "")
		require.NoError(t, err)
		f.emitter.events = nil

		require.NoError(t, f.service.HandleSettle(context.Background(), r.ID))

		assert.Equal(t, models.RefundStatusProcessed, r.Status)
		require.NotNil(t, r.ProcessedAt)
		assert.Equal(t, []string{"refund.processed"}, f.emitter.events)
	})

	t.Run("rejects at settlement when eligibility lapsed", func(t *testing.T) {
		f := newFixture(t)
		r, err := f.service.Create(context.Background(), f.merchant, f.payment.ID, 20000, "")
		require.NoError(t, err)
		f.emitter.events = nil

		f.payment.Status = models.PaymentStatusFailed

		require.NoError(t, f.service.HandleSettle(context.Background(), r.ID))

		assert.Equal(t, models.RefundStatusRejected, r.Status)
		assert.Nil(t, r.ProcessedAt)
		assert.Empty(t, f.emitter.events)
	})

	t.Run("redelivered settle is silent", func(t *testing.T) {
		f := newFixture(t)
		r, err := f.service.Create(context.Background(), f.merchant, f.payment.ID, 20000, "")
		require.NoError(t, err)
		f.emitter.events = nil

		require.NoError(t, f.service.HandleSettle(context.Background(), r.ID))
		require.NoError(t, f.service.HandleSettle(context.Background(), r.ID))

		assert.Equal(t, []string{"refund.processed"}, f.emitter.events, "exactly one event")
	})
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	r, err := f.service.Create(context.Background(), f.merchant, f.payment.ID, 100, "")
	require.NoError(t, err)

	got, err := f.service.Get(context.Background(), f.merchant, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	_, err = f.service.Get(context.Background(), &models.Merchant{ID: uuid.New()}, r.ID)
	assert.ErrorIs(t, err, ErrRefundNotFound)

	_, err = f.service.Get(context.Background(), f.merchant, "rfnd_missing")
	assert.ErrorIs(t, err, ErrRefundNotFound)
}
