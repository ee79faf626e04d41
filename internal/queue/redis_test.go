package queue

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// unreachableRedis returns a queue whose backend can never be dialed.
func unreachableRedis() *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	return NewRedis(client, "t")
}

func TestRedisStatusDegradesWhenBackendDown(t *testing.T) {
	q := unreachableRedis()

	status := q.Status(context.Background())
	assert.Equal(t, Status{
		Pending:      0,
		Processing:   0,
		Completed:    0,
		Failed:       0,
		WorkerStatus: WorkerStopped,
	}, status, "backend failure must read as an empty, stopped queue")
}

func TestRedisPingReportsBackendDown(t *testing.T) {
	q := unreachableRedis()
	assert.Error(t, q.Ping(context.Background()))
}

func TestRedisEnqueueSurfacesBackendErrors(t *testing.T) {
	q := unreachableRedis()

	assert.Error(t, q.Enqueue(context.Background(), "payment.process", "pay_a"))
	assert.Error(t, q.EnqueueIn(context.Background(), time.Second, "payment.settle", "pay_a"))
}

func TestRedisKeyLayout(t *testing.T) {
	q := NewRedis(redis.NewClient(&redis.Options{}), "payflow")

	assert.Equal(t, "payflow:pending", q.pendingKey())
	assert.Equal(t, "payflow:delayed", q.delayedKey())
	assert.Equal(t, "payflow:completed", q.completedKey())
	assert.Equal(t, "payflow:failed", q.failedKey())
	assert.Equal(t, "payflow:processing", q.processingKey())
	assert.Equal(t, "payflow:workers:w1", q.workerKey("w1"))
}
