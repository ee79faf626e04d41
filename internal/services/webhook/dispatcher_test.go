package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"payflow/internal/models"
	"payflow/internal/queue"
	"payflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLogStore struct {
	mu   sync.Mutex
	logs map[uuid.UUID]models.WebhookLog
}

func newFakeLogStore() *fakeLogStore {
	return &fakeLogStore{logs: make(map[uuid.UUID]models.WebhookLog)}
}

func (s *fakeLogStore) Create(_ context.Context, log *models.WebhookLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[log.ID] = *log
	return nil
}

func (s *fakeLogStore) GetByID(_ context.Context, id uuid.UUID) (*models.WebhookLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.logs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := log
	return &copied, nil
}

func (s *fakeLogStore) Update(_ context.Context, log *models.WebhookLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[log.ID] = *log
	return nil
}

func (s *fakeLogStore) ListByMerchant(_ context.Context, merchantID uuid.UUID, limit, offset int) ([]models.WebhookLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WebhookLog
	for _, log := range s.logs {
		if log.MerchantID == merchantID {
			out = append(out, log)
		}
	}
	return out, int64(len(out)), nil
}

type fakeMerchantStore struct {
	merchants map[uuid.UUID]*models.Merchant
}

func (s *fakeMerchantStore) Create(_ context.Context, m *models.Merchant) error {
	s.merchants[m.ID] = m
	return nil
}

func (s *fakeMerchantStore) GetByID(_ context.Context, id uuid.UUID) (*models.Merchant, error) {
	m, ok := s.merchants[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return m, nil
}

func (s *fakeMerchantStore) GetByAPIKey(_ context.Context, _ string) (*models.Merchant, error) {
	return nil, repositories.ErrNotFound
}

func (s *fakeMerchantStore) GetByEmail(_ context.Context, _ string) (*models.Merchant, error) {
	return nil, repositories.ErrNotFound
}

func (s *fakeMerchantStore) Update(_ context.Context, m *models.Merchant) error {
	s.merchants[m.ID] = m
	return nil
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

func newTestDispatcher(t *testing.T, merchant *models.Merchant) (*Dispatcher, *fakeLogStore, *recorderQueue) {
	t.Helper()
	logs := newFakeLogStore()
	merchants := &fakeMerchantStore{merchants: map[uuid.UUID]*models.Merchant{}}
	if merchant != nil {
		merchants.merchants[merchant.ID] = merchant
	}
	q := &recorderQueue{}
	d := NewDispatcher(logs, merchants, q, TestSchedule, zap.NewNop(), nil)
	return d, logs, q
}

func testMerchant(url string) *models.Merchant {
	return &models.Merchant{
		ID:            uuid.New(),
		Name:          "Test",
		Email:         "test@example.com",
		WebhookURL:    url,
		WebhookSecret: "whsec_abc123",
		IsActive:      true,
	}
}

func pendingLog(merchantID uuid.UUID, attempts int) *models.WebhookLog {
	now := time.Now().UTC()
	return &models.WebhookLog{
		ID:          uuid.New(),
		MerchantID:  merchantID,
		Event:       EventPaymentSuccess,
		Payload:     models.JSON{"event": EventPaymentSuccess, "timestamp": int64(1700000000)},
		Status:      models.WebhookStatusPending,
		Attempts:    attempts,
		NextRetryAt: &now,
	}
}

func TestEmit(t *testing.T) {
	t.Run("creates pending log and enqueues delivery", func(t *testing.T) {
		merchant := testMerchant("https://example.com/hook")
		d, logs, q := newTestDispatcher(t, merchant)

		err := d.Emit(context.Background(), merchant.ID, EventPaymentCreated, models.JSON{"event": EventPaymentCreated})
		require.NoError(t, err)

		require.Len(t, q.entries, 1)
		assert.Equal(t, JobDeliver, q.entries[0].job)
		assert.Zero(t, q.entries[0].delay)

		log, err := logs.GetByID(context.Background(), uuid.MustParse(q.entries[0].id))
		require.NoError(t, err)
		assert.Equal(t, models.WebhookStatusPending, log.Status)
		assert.Equal(t, 0, log.Attempts)
		assert.Equal(t, EventPaymentCreated, log.Event)
	})

	t.Run("drops events silently without a webhook url", func(t *testing.T) {
		merchant := testMerchant("")
		d, logs, q := newTestDispatcher(t, merchant)

		err := d.Emit(context.Background(), merchant.ID, EventPaymentCreated, models.JSON{})
		require.NoError(t, err)
		assert.Empty(t, q.entries)
		assert.Empty(t, logs.logs)
	})

	t.Run("unknown merchant is a no-op", func(t *testing.T) {
		d, _, q := newTestDispatcher(t, nil)
		err := d.Emit(context.Background(), uuid.New(), EventPaymentCreated, models.JSON{})
		require.NoError(t, err)
		assert.Empty(t, q.entries)
	})
}

func TestHandleDeliverSuccess(t *testing.T) {
	var gotSignature string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	merchant := testMerchant(server.URL)
	d, logs, q := newTestDispatcher(t, merchant)

	log := pendingLog(merchant.ID, 0)
	require.NoError(t, logs.Create(context.Background(), log))

	require.NoError(t, d.HandleDeliver(context.Background(), log.ID.String()))

	stored, err := logs.GetByID(context.Background(), log.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookStatusSuccess, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	require.NotNil(t, stored.ResponseCode)
	assert.Equal(t, http.StatusOK, *stored.ResponseCode)
	assert.Nil(t, stored.NextRetryAt)
	assert.Empty(t, q.entries, "successful delivery must not re-enqueue")

	assert.True(t, VerifySignature(gotBody, merchant.WebhookSecret, gotSignature))
}

func TestHandleDeliverFailureSchedulesRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	merchant := testMerchant(server.URL)
	d, logs, q := newTestDispatcher(t, merchant)

	log := pendingLog(merchant.ID, 0)
	require.NoError(t, logs.Create(context.Background(), log))

	// Delivery failures are recorded, not returned; the job itself succeeds.
	require.NoError(t, d.HandleDeliver(context.Background(), log.ID.String()))

	stored, err := logs.GetByID(context.Background(), log.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookStatusPending, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	require.NotNil(t, stored.ResponseCode)
	assert.Equal(t, http.StatusInternalServerError, *stored.ResponseCode)
	require.NotNil(t, stored.NextRetryAt)

	require.Len(t, q.entries, 1)
	assert.Equal(t, JobDeliver, q.entries[0].job)
	assert.Equal(t, TestSchedule.Delay(2), q.entries[0].delay)
}

func TestHandleDeliverExhaustsAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	merchant := testMerchant(server.URL)
	d, logs, q := newTestDispatcher(t, merchant)

	log := pendingLog(merchant.ID, models.MaxWebhookAttempts-1)
	require.NoError(t, logs.Create(context.Background(), log))

	require.NoError(t, d.HandleDeliver(context.Background(), log.ID.String()))

	stored, err := logs.GetByID(context.Background(), log.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookStatusFailed, stored.Status)
	assert.Equal(t, models.MaxWebhookAttempts, stored.Attempts)
	assert.Nil(t, stored.NextRetryAt)
	assert.Empty(t, q.entries, "exhausted log must not re-enqueue")
}

func TestHandleDeliverMissingConfiguration(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	merchant := testMerchant("")
	d, logs, q := newTestDispatcher(t, merchant)

	log := pendingLog(merchant.ID, 0)
	require.NoError(t, logs.Create(context.Background(), log))

	require.NoError(t, d.HandleDeliver(context.Background(), log.ID.String()))

	stored, err := logs.GetByID(context.Background(), log.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookStatusFailed, stored.Status)
	assert.Equal(t, models.MaxWebhookAttempts, stored.Attempts)
	assert.Nil(t, stored.NextRetryAt)
	assert.Contains(t, stored.ResponseBody, "configuration missing")
	assert.Zero(t, requests, "must not attempt network I/O")
	assert.Empty(t, q.entries)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short body untouched", "ok", 2000, "ok"},
		{"ascii cut at limit", strings.Repeat("a", 2001), 2000, strings.Repeat("a", 2000)},
		{"multibyte at the limit survives", strings.Repeat("a", 1999) + "é", 2000, strings.Repeat("a", 1999) + "é"},
		{"multibyte past the limit is dropped whole", strings.Repeat("a", 2000) + "é", 2000, strings.Repeat("a", 2000)},
		{"invalid bytes are stripped", "ok\xc3", 2000, "ok"},
		{"empty", "", 2000, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.n)
		})
	}
}

func TestHandleDeliverStoresValidResponseBody(t *testing.T) {
	// A failing receiver whose body is raw bytes with a multi-byte rune
	// straddling the truncation boundary. The stored body must stay valid
	// UTF-8 so the log update commits and the retry chain survives.
	body := strings.Repeat("a", 1999) + "é" + strings.Repeat("b", 100) + "\xff\xfe"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(body))
	}))
	defer server.Close()

	merchant := testMerchant(server.URL)
	d, logs, q := newTestDispatcher(t, merchant)

	log := pendingLog(merchant.ID, 0)
	require.NoError(t, logs.Create(context.Background(), log))

	require.NoError(t, d.HandleDeliver(context.Background(), log.ID.String()))

	stored, err := logs.GetByID(context.Background(), log.ID)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(stored.ResponseBody))
	assert.LessOrEqual(t, utf8.RuneCountInString(stored.ResponseBody), 2000)

	// The failure path still schedules the next attempt.
	require.Len(t, q.entries, 1)
	assert.Equal(t, JobDeliver, q.entries[0].job)
}

func TestHandleDeliverTerminalNoop(t *testing.T) {
	merchant := testMerchant("https://example.com/hook")
	d, logs, q := newTestDispatcher(t, merchant)

	log := pendingLog(merchant.ID, 3)
	log.Status = models.WebhookStatusSuccess
	require.NoError(t, logs.Create(context.Background(), log))

	require.NoError(t, d.HandleDeliver(context.Background(), log.ID.String()))

	stored, err := logs.GetByID(context.Background(), log.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Attempts, "terminal log must not be touched")
	assert.Empty(t, q.entries)
}

func TestRetry(t *testing.T) {
	merchant := testMerchant("https://example.com/hook")
	d, logs, q := newTestDispatcher(t, merchant)

	log := pendingLog(merchant.ID, models.MaxWebhookAttempts)
	log.Status = models.WebhookStatusFailed
	require.NoError(t, logs.Create(context.Background(), log))

	t.Run("resets attempts and enqueues", func(t *testing.T) {
		reset, err := d.Retry(context.Background(), merchant, log.ID)
		require.NoError(t, err)
		assert.Equal(t, models.WebhookStatusPending, reset.Status)
		assert.Equal(t, 0, reset.Attempts)
		require.Len(t, q.entries, 1)
		assert.Equal(t, JobDeliver, q.entries[0].job)
	})

	t.Run("cross-merchant retry reads as not found", func(t *testing.T) {
		other := testMerchant("https://example.com/other")
		_, err := d.Retry(context.Background(), other, log.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}
