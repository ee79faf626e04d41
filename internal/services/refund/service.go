// Package refund implements refund creation and the async processing
// state machine: pending -> {processed, rejected}. Eligibility is
// re-checked inside the jobs, not just at creation time, and the final
// check runs in the same transaction as the commit.
package refund

import (
	"context"
	"errors"
	"time"

	"payflow/internal/models"
	"payflow/internal/queue"
	"payflow/internal/repositories"
	"payflow/internal/services/simulation"
	"payflow/internal/services/webhook"
	"payflow/internal/utils"

	"go.uber.org/zap"
)

// Queue job names handled by this package.
const (
	JobProcess = "refund.process"
	JobSettle  = "refund.settle"
)

// Service coordinates refund state. All dependencies are injected.
type Service struct {
	payments  repositories.PaymentRepository
	refunds   repositories.RefundRepository
	queue     queue.Queue
	emitter   webhook.Emitter
	simulator simulation.Simulator
	logger    *zap.Logger
}

func NewService(
	payments repositories.PaymentRepository,
	refunds repositories.RefundRepository,
	q queue.Queue,
	emitter webhook.Emitter,
	simulator simulation.Simulator,
	logger *zap.Logger,
) *Service {
	if payments == nil || refunds == nil || q == nil || emitter == nil || simulator == nil {
		panic("refund: all dependencies are required")
	}
	return &Service{
		payments:  payments,
		refunds:   refunds,
		queue:     q,
		emitter:   emitter,
		simulator: simulator,
		logger:    logger,
	}
}

// Create validates and inserts a pending refund. The aggregate check
// (pending plus processed refunds never exceed the payment amount) runs
// transactionally under a payment row lock, so concurrent requests cannot
// overcommit.
func (s *Service) Create(ctx context.Context, merchant *models.Merchant, paymentID string, amount int64, reason string) (*models.Refund, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if payment.MerchantID != merchant.ID {
		return nil, ErrPaymentNotFound
	}
	if payment.Status != models.PaymentStatusSuccess {
		return nil, ErrNotRefundable
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	r := &models.Refund{
		ID:         utils.NewID("rfnd"),
		PaymentID:  payment.ID,
		MerchantID: merchant.ID,
		Amount:     amount,
		Reason:     reason,
		Status:     models.RefundStatusPending,
	}

	err = s.refunds.CreateGuarded(ctx, r)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, ErrPaymentNotFound
	case errors.Is(err, repositories.ErrPaymentNotRefundable):
		return nil, ErrNotRefundable
	case errors.Is(err, repositories.ErrRefundExceedsAmount):
		return nil, ErrExceedsAvailable
	case err != nil:
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, JobProcess, r.ID); err != nil {
		return nil, err
	}
	s.emit(ctx, r, webhook.EventRefundCreated)

	return r, nil
}

// Get returns the merchant's refund, not-found for cross-merchant lookups.
func (s *Service) Get(ctx context.Context, merchant *models.Merchant, id string) (*models.Refund, error) {
	r, err := s.refunds.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrRefundNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.MerchantID != merchant.ID {
		return nil, ErrRefundNotFound
	}
	return r, nil
}

// HandleProcess is the refund.process job handler. It re-validates
// eligibility against current payment state; refunds that no longer
// qualify are terminally rejected rather than left pending, and no event
// is emitted for them. Eligible refunds get a settlement continuation
// after the simulated delay.
func (s *Service) HandleProcess(ctx context.Context, id string) error {
	r, err := s.refunds.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if r.Status != models.RefundStatusPending {
		return nil
	}

	eligible, err := s.eligible(ctx, r)
	if err != nil {
		return err
	}
	if !eligible {
		rejected, err := s.refunds.RejectIfPending(ctx, r.ID)
		if err != nil {
			return err
		}
		if rejected {
			s.logger.Warn("refund rejected on revalidation",
				zap.String("refund_id", r.ID),
				zap.String("payment_id", r.PaymentID))
		}
		return nil
	}

	return s.queue.EnqueueIn(ctx, s.simulator.RefundDelay(), JobSettle, r.ID)
}

// HandleSettle is the refund.settle job handler. The eligibility re-check
// and the processed commit happen in one locked transaction; a redelivered
// settle for a terminal refund is a no-op.
func (s *Service) HandleSettle(ctx context.Context, id string) error {
	outcome, r, err := s.refunds.SettleLocked(ctx, id, time.Now().UTC())
	if err != nil {
		return err
	}

	switch outcome {
	case repositories.SettleProcessed:
		s.logger.Info("refund processed", zap.String("refund_id", r.ID))
		s.emit(ctx, r, webhook.EventRefundProcessed)
	case repositories.SettleRejected:
		s.logger.Warn("refund rejected at settlement", zap.String("refund_id", r.ID))
	}
	return nil
}

func (s *Service) eligible(ctx context.Context, r *models.Refund) (bool, error) {
	payment, err := s.payments.GetByID(ctx, r.PaymentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if payment.Status != models.PaymentStatusSuccess {
		return false, nil
	}

	refunded, err := s.refunds.ActiveAmount(ctx, r.PaymentID)
	if err != nil {
		return false, err
	}
	return refunded <= payment.Amount, nil
}

func (s *Service) emit(ctx context.Context, r *models.Refund, event string) {
	if err := s.emitter.Emit(ctx, r.MerchantID, event, webhook.RefundEvent(event, r)); err != nil {
		s.logger.Error("emit failed",
			zap.String("event", event),
			zap.String("refund_id", r.ID),
			zap.Error(err))
	}
}
