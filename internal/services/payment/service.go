// Package payment implements payment creation, capture and the async
// processing state machine: pending -> {success, failed}, with capture as
// an orthogonal flag settable only from success.
package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"payflow/internal/models"
	"payflow/internal/queue"
	"payflow/internal/repositories"
	"payflow/internal/services/simulation"
	"payflow/internal/services/webhook"
	"payflow/internal/utils"
	"payflow/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service coordinates payment state. All dependencies are injected.
type Service struct {
	orders    repositories.OrderRepository
	payments  repositories.PaymentRepository
	queue     queue.Queue
	emitter   webhook.Emitter
	simulator simulation.Simulator
	logger    *zap.Logger
}

func NewService(
	orders repositories.OrderRepository,
	payments repositories.PaymentRepository,
	q queue.Queue,
	emitter webhook.Emitter,
	simulator simulation.Simulator,
	logger *zap.Logger,
) *Service {
	if orders == nil || payments == nil || q == nil || emitter == nil || simulator == nil {
		panic("payment: all dependencies are required")
	}
	return &Service{
		orders:    orders,
		payments:  payments,
		queue:     q,
		emitter:   emitter,
		simulator: simulator,
		logger:    logger,
	}
}

// Create validates the command against the merchant's order, inserts a
// pending payment and enqueues asynchronous processing. payment.created
// and payment.pending events are emitted immediately.
func (s *Service) Create(ctx context.Context, merchant *models.Merchant, input CreateInput) (*models.Payment, error) {
	order, err := s.orders.GetByID(ctx, input.OrderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	// Cross-merchant access reads as not-found.
	if order.MerchantID != merchant.ID {
		return nil, ErrOrderNotFound
	}

	method := strings.ToLower(input.Method)
	p := &models.Payment{
		ID:         utils.NewID("pay"),
		OrderID:    order.ID,
		MerchantID: merchant.ID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Method:     method,
		Status:     models.PaymentStatusPending,
	}

	switch method {
	case models.MethodUPI:
		if input.VPA == "" || !validation.ValidateVPA(input.VPA) {
			return nil, ErrInvalidVPA
		}
		p.VPA = input.VPA
	case models.MethodCard:
		if input.Card == nil {
			return nil, ErrCardMissing
		}
		if !validation.LuhnCheck(input.Card.Number) {
			return nil, ErrInvalidCard
		}
		if !validation.ValidateExpiry(input.Card.ExpiryMonth, input.Card.ExpiryYear, time.Now().UTC()) {
			return nil, ErrExpiredCard
		}
		digits := validation.NormalizeCardNumber(input.Card.Number)
		p.CardNetwork = validation.DetectCardNetwork(input.Card.Number)
		p.CardLast4 = digits[len(digits)-4:]
	default:
		return nil, ErrUnsupportedMethod
	}

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, JobProcess, p.ID); err != nil {
		return nil, err
	}

	s.emit(ctx, p, webhook.EventPaymentCreated)
	s.emit(ctx, p, webhook.EventPaymentPending)

	return p, nil
}

// Get returns the merchant's payment, or ErrPaymentNotFound for unknown
// ids and cross-merchant lookups alike.
func (s *Service) Get(ctx context.Context, merchant *models.Merchant, id string) (*models.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if merchant != nil && p.MerchantID != merchant.ID {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

// Capture marks the payment captured. It is allowed only while the
// payment status is success and the requested amount matches exactly;
// status never changes.
func (s *Service) Capture(ctx context.Context, merchant *models.Merchant, id string, amount int64) (*models.Payment, error) {
	if _, err := s.Get(ctx, merchant, id); err != nil {
		return nil, err
	}

	p, err := s.payments.Capture(ctx, id, amount)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if errors.Is(err, repositories.ErrNotCapturable) {
		return nil, ErrNotCapturable
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns recent payments, optionally scoped to one merchant.
func (s *Service) List(ctx context.Context, merchantID *uuid.UUID, limit int) ([]models.Payment, error) {
	return s.payments.List(ctx, merchantID, limit)
}

// HandleProcess is the payment.process job handler. It draws the
// simulated network delay and schedules the settlement continuation
// instead of holding a worker for the duration.
func (s *Service) HandleProcess(ctx context.Context, id string) error {
	p, err := s.payments.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.Status != models.PaymentStatusPending {
		return nil
	}

	delay := s.simulator.PaymentDelay()
	s.logger.Debug("payment processing scheduled",
		zap.String("payment_id", p.ID),
		zap.Duration("delay", delay))
	return s.queue.EnqueueIn(ctx, delay, JobSettle, p.ID)
}

// HandleSettle is the payment.settle job handler. It commits the
// simulated outcome under a row lock; redelivered jobs no-op once the
// payment left pending.
func (s *Service) HandleSettle(ctx context.Context, id string) error {
	p, applied, err := s.payments.SettleIfPending(ctx, id, func(p *models.Payment) {
		if s.simulator.PaymentOutcome(p.Method) {
			p.Status = models.PaymentStatusSuccess
			p.ErrorCode = ""
			p.ErrorDescription = ""
		} else {
			p.Status = models.PaymentStatusFailed
			p.ErrorCode = FailureCode
			p.ErrorDescription = FailureDescription
		}
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	event := webhook.EventPaymentSuccess
	if p.Status == models.PaymentStatusFailed {
		event = webhook.EventPaymentFailed
	}
	s.logger.Info("payment settled",
		zap.String("payment_id", p.ID),
		zap.String("status", p.Status))
	s.emit(ctx, p, event)
	return nil
}

func (s *Service) emit(ctx context.Context, p *models.Payment, event string) {
	if err := s.emitter.Emit(ctx, p.MerchantID, event, webhook.PaymentEvent(event, p)); err != nil {
		s.logger.Error("emit failed",
			zap.String("event", event),
			zap.String("payment_id", p.ID),
			zap.Error(err))
	}
}
