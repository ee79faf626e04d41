package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRunsJobsThroughMux(t *testing.T) {
	mux := NewMux()
	var ran atomic.Int64
	mux.Register("job.ok", func(ctx context.Context, id string) error {
		assert.Equal(t, "entity_1", id)
		ran.Add(1)
		return nil
	})
	mux.Register("job.bad", func(ctx context.Context, id string) error {
		return errors.New("boom")
	})

	m := NewMemory(mux)
	require.NoError(t, m.Enqueue(context.Background(), "job.ok", "entity_1"))
	require.NoError(t, m.Enqueue(context.Background(), "job.bad", "entity_1"))
	require.NoError(t, m.Enqueue(context.Background(), "job.unregistered", "entity_1"))
	m.Wait()

	assert.Equal(t, int64(1), ran.Load())

	status := m.Status(context.Background())
	assert.Equal(t, int64(0), status.Pending)
	assert.Equal(t, int64(0), status.Processing)
	assert.Equal(t, int64(1), status.Completed)
	assert.Equal(t, int64(2), status.Failed)
	assert.Equal(t, WorkerRunning, status.WorkerStatus)
}

func TestMemoryDelayedJob(t *testing.T) {
	mux := NewMux()
	done := make(chan time.Time, 1)
	mux.Register("job.later", func(ctx context.Context, id string) error {
		done <- time.Now()
		return nil
	})

	m := NewMemory(mux)
	start := time.Now()
	require.NoError(t, m.EnqueueIn(context.Background(), 50*time.Millisecond, "job.later", "entity_1"))
	m.Wait()

	ranAt := <-done
	assert.GreaterOrEqual(t, ranAt.Sub(start), 50*time.Millisecond)
}

func TestMemoryClose(t *testing.T) {
	m := NewMemory(NewMux())
	m.Close()

	err := m.Enqueue(context.Background(), "job.ok", "entity_1")
	assert.Error(t, err)
	assert.Equal(t, WorkerStopped, m.Status(context.Background()).WorkerStatus)
}
