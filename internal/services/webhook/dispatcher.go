package webhook

import (
	"context"
	"errors"
	"strings"
	"time"

	"payflow/internal/models"
	"payflow/internal/queue"
	"payflow/internal/repositories"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobDeliver is the queue job name for a delivery attempt.
const JobDeliver = "webhook.deliver"

// DeliveryTimeout bounds a single outbound webhook call.
const DeliveryTimeout = 5 * time.Second

// maxResponseBody is how much of the receiver's response is retained.
const maxResponseBody = 2000

// Emitter is the part of the dispatcher the processors depend on.
type Emitter interface {
	Emit(ctx context.Context, merchantID uuid.UUID, event string, payload models.JSON) error
}

// DeliveryObserver receives delivery results, e.g. for metrics.
type DeliveryObserver interface {
	ObserveDelivery(result string, duration time.Duration)
}

// Dispatcher turns domain events into signed HTTP notifications, tracks
// delivery attempts on the webhook log and re-schedules failures along the
// configured backoff schedule.
type Dispatcher struct {
	logs      repositories.WebhookLogRepository
	merchants repositories.MerchantRepository
	queue     queue.Queue
	client    *resty.Client
	schedule  Schedule
	logger    *zap.Logger
	observer  DeliveryObserver
	now       func() time.Time
}

func NewDispatcher(
	logs repositories.WebhookLogRepository,
	merchants repositories.MerchantRepository,
	q queue.Queue,
	schedule Schedule,
	logger *zap.Logger,
	observer DeliveryObserver,
) *Dispatcher {
	client := resty.New()
	client.SetTimeout(DeliveryTimeout)

	return &Dispatcher{
		logs:      logs,
		merchants: merchants,
		queue:     q,
		client:    client,
		schedule:  schedule,
		logger:    logger,
		observer:  observer,
		now:       time.Now,
	}
}

// Emit records a pending webhook log for the event and enqueues an
// immediate delivery attempt. Events for merchants without a configured
// webhook URL are dropped silently. If the enqueue fails after the row
// was written the error propagates to the caller and the log stays
// pending with no scheduled job; Retry is the recovery path for such
// stranded logs.
func (d *Dispatcher) Emit(ctx context.Context, merchantID uuid.UUID, event string, payload models.JSON) error {
	merchant, err := d.merchants.GetByID(ctx, merchantID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if merchant.WebhookURL == "" {
		return nil
	}

	now := d.now()
	log := &models.WebhookLog{
		ID:          uuid.New(),
		MerchantID:  merchantID,
		Event:       event,
		Payload:     payload,
		Status:      models.WebhookStatusPending,
		Attempts:    0,
		NextRetryAt: &now,
	}
	if err := d.logs.Create(ctx, log); err != nil {
		return err
	}

	return d.queue.Enqueue(ctx, JobDeliver, log.ID.String())
}

// HandleDeliver is the webhook.deliver job handler. It is idempotent
// against redelivery: terminal logs are a no-op.
func (d *Dispatcher) HandleDeliver(ctx context.Context, id string) error {
	logID, err := uuid.Parse(id)
	if err != nil {
		d.logger.Error("invalid webhook log id", zap.String("id", id))
		return nil
	}

	log, err := d.logs.GetByID(ctx, logID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if log.Terminal() {
		return nil
	}

	merchant, err := d.merchants.GetByID(ctx, log.MerchantID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if merchant == nil || merchant.WebhookURL == "" || merchant.WebhookSecret == "" {
		// Configuration changed between emission and delivery. Terminal,
		// no network I/O.
		now := d.now()
		log.Status = models.WebhookStatusFailed
		log.Attempts = models.MaxWebhookAttempts
		log.LastAttemptAt = &now
		log.NextRetryAt = nil
		log.ResponseBody = "Merchant webhook configuration missing"
		return d.logs.Update(ctx, log)
	}

	body, err := CanonicalBody(log.Payload)
	if err != nil {
		return err
	}
	signature := Sign(body, merchant.WebhookSecret)

	now := d.now()
	log.Attempts++
	log.LastAttemptAt = &now

	start := time.Now()
	resp, postErr := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(SignatureHeader, signature).
		SetBody(body).
		Post(merchant.WebhookURL)
	elapsed := time.Since(start)

	ok := false
	if postErr != nil {
		log.ResponseCode = nil
		log.ResponseBody = truncate(postErr.Error(), maxResponseBody)
	} else {
		code := resp.StatusCode()
		log.ResponseCode = &code
		log.ResponseBody = truncate(resp.String(), maxResponseBody)
		ok = code >= 200 && code <= 299
	}

	if ok {
		log.Status = models.WebhookStatusSuccess
		log.NextRetryAt = nil
		d.observe("success", elapsed)
		return d.logs.Update(ctx, log)
	}

	d.observe("failure", elapsed)
	d.logger.Warn("webhook delivery failed",
		zap.String("log_id", log.ID.String()),
		zap.String("event", log.Event),
		zap.Int("attempts", log.Attempts))

	if log.Attempts >= models.MaxWebhookAttempts {
		log.Status = models.WebhookStatusFailed
		log.NextRetryAt = nil
		return d.logs.Update(ctx, log)
	}

	delay := d.schedule.Delay(log.Attempts + 1)
	retryAt := now.Add(delay)
	log.Status = models.WebhookStatusPending
	log.NextRetryAt = &retryAt
	if err := d.logs.Update(ctx, log); err != nil {
		return err
	}

	return d.queue.EnqueueIn(ctx, delay, JobDeliver, log.ID.String())
}

// Retry resets a log for a fresh round of delivery attempts, independent
// of the automatic backoff path. Cross-merchant lookups report not-found.
func (d *Dispatcher) Retry(ctx context.Context, merchant *models.Merchant, logID uuid.UUID) (*models.WebhookLog, error) {
	log, err := d.logs.GetByID(ctx, logID)
	if err != nil {
		return nil, err
	}
	if log.MerchantID != merchant.ID {
		return nil, repositories.ErrNotFound
	}

	now := d.now()
	log.Status = models.WebhookStatusPending
	log.Attempts = 0
	log.NextRetryAt = &now
	if err := d.logs.Update(ctx, log); err != nil {
		return nil, err
	}

	if err := d.queue.Enqueue(ctx, JobDeliver, log.ID.String()); err != nil {
		return nil, err
	}
	return log, nil
}

// List returns a page of the merchant's webhook logs, newest first.
func (d *Dispatcher) List(ctx context.Context, merchant *models.Merchant, limit, offset int) ([]models.WebhookLog, int64, error) {
	return d.logs.ListByMerchant(ctx, merchant.ID, limit, offset)
}

func (d *Dispatcher) observe(result string, elapsed time.Duration) {
	if d.observer != nil {
		d.observer.ObserveDelivery(result, elapsed)
	}
}

// truncate keeps at most n characters. The result must stay valid UTF-8:
// the response body lands in a Postgres text column, and a byte-level cut
// (or a receiver sending non-UTF-8 bytes) would make the log update fail
// and strand the retry chain.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
