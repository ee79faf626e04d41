package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the durable queue backend. Immediate jobs go on a list, delayed
// jobs on a sorted set scored by their ready time; a promoter moves due
// jobs onto the list. Completed/failed counts and worker heartbeats live
// in plain keys so Status can be answered with a handful of reads.
type Redis struct {
	client *redis.Client
	name   string
}

func NewRedis(client *redis.Client, name string) *Redis {
	return &Redis{client: client, name: name}
}

func (q *Redis) pendingKey() string         { return q.name + ":pending" }
func (q *Redis) delayedKey() string         { return q.name + ":delayed" }
func (q *Redis) completedKey() string       { return q.name + ":completed" }
func (q *Redis) failedKey() string          { return q.name + ":failed" }
func (q *Redis) processingKey() string      { return q.name + ":processing" }
func (q *Redis) workerKey(id string) string { return q.name + ":workers:" + id }
func (q *Redis) workerPattern() string      { return q.name + ":workers:*" }

func (q *Redis) Enqueue(ctx context.Context, job, id string) error {
	payload, err := encodeJob(job, id)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.pendingKey(), payload).Err()
}

func (q *Redis) EnqueueIn(ctx context.Context, delay time.Duration, job, id string) error {
	if delay <= 0 {
		return q.Enqueue(ctx, job, id)
	}
	payload, err := encodeJob(job, id)
	if err != nil {
		return err
	}
	readyAt := float64(time.Now().Add(delay).UnixMilli())
	return q.client.ZAdd(ctx, q.delayedKey(), redis.Z{Score: readyAt, Member: payload}).Err()
}

// Status reports queue depth and worker liveness. Any backend error
// degrades to an all-zero, stopped response; operational reporting must
// never fail a caller.
func (q *Redis) Status(ctx context.Context) Status {
	stopped := Status{WorkerStatus: WorkerStopped}

	pending, err := q.client.LLen(ctx, q.pendingKey()).Result()
	if err != nil {
		return stopped
	}
	delayed, err := q.client.ZCard(ctx, q.delayedKey()).Result()
	if err != nil {
		return stopped
	}
	processing, err := q.client.Get(ctx, q.processingKey()).Int64()
	if err != nil && err != redis.Nil {
		return stopped
	}
	completed, err := q.client.Get(ctx, q.completedKey()).Int64()
	if err != nil && err != redis.Nil {
		return stopped
	}
	failed, err := q.client.Get(ctx, q.failedKey()).Int64()
	if err != nil && err != redis.Nil {
		return stopped
	}

	workers, err := q.client.Keys(ctx, q.workerPattern()).Result()
	if err != nil {
		return stopped
	}
	status := WorkerStopped
	if len(workers) > 0 {
		status = WorkerRunning
	}

	return Status{
		Pending:      pending + delayed,
		Processing:   processing,
		Completed:    completed,
		Failed:       failed,
		WorkerStatus: status,
	}
}

// Ping reports backend reachability for health checks.
func (q *Redis) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// pop blocks up to timeout waiting for the next pending job.
func (q *Redis) pop(ctx context.Context, timeout time.Duration) (Job, bool, error) {
	res, err := q.client.BRPop(ctx, timeout, q.pendingKey()).Result()
	if err == redis.Nil {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, err
	}
	job, err := decodeJob([]byte(res[1]))
	if err != nil {
		return Job{}, false, err
	}
	return job, true, nil
}

// promoteDue moves delayed jobs whose ready time has passed onto the
// pending list. ZRem decides the winner when multiple promoters race.
func (q *Redis) promoteDue(ctx context.Context, now time.Time) error {
	due, err := q.client.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: 100,
	}).Result()
	if err != nil || len(due) == 0 {
		return err
	}

	for _, member := range due {
		removed, err := q.client.ZRem(ctx, q.delayedKey(), member).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.pendingKey(), member).Err(); err != nil {
			return err
		}
	}
	return nil
}
