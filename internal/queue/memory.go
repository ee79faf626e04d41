package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Memory is an in-process queue used in tests and for local development
// without Redis. Jobs run on goroutines through the same Mux the worker
// pool would use, including delayed delivery, so service-level behavior is
// identical apart from durability.
type Memory struct {
	mux        *Mux
	jobTimeout time.Duration

	pending   atomic.Int64
	running   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewMemory(mux *Mux) *Memory {
	return &Memory{mux: mux, jobTimeout: defaultJobTimeout}
}

func (m *Memory) Enqueue(ctx context.Context, job, id string) error {
	return m.EnqueueIn(ctx, 0, job, id)
}

func (m *Memory) EnqueueIn(ctx context.Context, delay time.Duration, job, id string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return context.Canceled
	}
	m.wg.Add(1)
	m.pending.Add(1)
	m.mu.Unlock()

	time.AfterFunc(delay, func() {
		defer m.wg.Done()
		m.pending.Add(-1)
		m.run(job, id)
	})
	return nil
}

func (m *Memory) run(job, id string) {
	handler, ok := m.mux.Handler(job)
	if !ok {
		m.failed.Add(1)
		return
	}

	m.running.Add(1)
	defer m.running.Add(-1)

	ctx, cancel := context.WithTimeout(context.Background(), m.jobTimeout)
	defer cancel()

	if err := handler(ctx, id); err != nil {
		m.failed.Add(1)
		return
	}
	m.completed.Add(1)
}

func (m *Memory) Status(ctx context.Context) Status {
	status := WorkerRunning
	m.mu.Lock()
	if m.closed {
		status = WorkerStopped
	}
	m.mu.Unlock()

	return Status{
		Pending:      m.pending.Load(),
		Processing:   m.running.Load(),
		Completed:    m.completed.Load(),
		Failed:       m.failed.Load(),
		WorkerStatus: status,
	}
}

// Wait blocks until every enqueued job, including delayed ones, has run.
func (m *Memory) Wait() {
	m.wg.Wait()
}

// Close stops accepting new jobs and waits for the in-flight ones.
func (m *Memory) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.wg.Wait()
}
