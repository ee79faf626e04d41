// Package queue implements durable named-job dispatch for the async core.
// Jobs are named operations over a single entity id, executed at-least-once
// by a pool of workers; handlers are expected to re-read entity state and
// no-op when their precondition no longer holds.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Handler executes one job. The id is the entity identifier the job was
// enqueued with.
type Handler func(ctx context.Context, id string) error

// Job is the wire form of a queued operation.
type Job struct {
	Name       string `json:"job"`
	ID         string `json:"id"`
	EnqueuedAt int64  `json:"enqueued_at"`
}

func encodeJob(name, id string) ([]byte, error) {
	return json.Marshal(Job{Name: name, ID: id, EnqueuedAt: time.Now().Unix()})
}

func decodeJob(data []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return j, nil
}

// Queue schedules named jobs for asynchronous execution. No ordering is
// guaranteed between distinct jobs, including jobs for the same entity.
type Queue interface {
	Enqueue(ctx context.Context, job, id string) error
	EnqueueIn(ctx context.Context, delay time.Duration, job, id string) error
	Status(ctx context.Context) Status
}

// Worker liveness values reported by Status.
const (
	WorkerRunning = "running"
	WorkerStopped = "stopped"
)

// Status is the operational read model of the queue. It is used for
// health reporting only, never for correctness.
type Status struct {
	Pending      int64  `json:"pending"`
	Processing   int64  `json:"processing"`
	Completed    int64  `json:"completed"`
	Failed       int64  `json:"failed"`
	WorkerStatus string `json:"worker_status"`
}

// Observer receives job execution results, e.g. for metrics.
type Observer interface {
	ObserveJob(job, result string, duration time.Duration)
}

// Mux maps job names to handlers.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewMux() *Mux {
	return &Mux{handlers: make(map[string]Handler)}
}

// Register binds a handler to a job name. Registering the same name twice
// panics; job wiring is a startup-time concern.
func (m *Mux) Register(name string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.handlers[name]; dup {
		panic("queue: duplicate handler for " + name)
	}
	m.handlers[name] = h
}

// Handler returns the handler bound to a job name.
func (m *Mux) Handler(name string) (Handler, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handlers[name]
	return h, ok
}
