package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultJobTimeout = 120 * time.Second
	popTimeout        = 2 * time.Second
	promoteInterval   = 500 * time.Millisecond
	heartbeatTTL      = 15 * time.Second
	heartbeatInterval = 5 * time.Second
)

// WorkerPool pulls jobs from a Redis queue and dispatches them through a
// Mux. Execution is concurrent and unordered; each job runs under its own
// wall-clock budget.
type WorkerPool struct {
	queue      *Redis
	mux        *Mux
	workers    int
	jobTimeout time.Duration
	logger     *zap.Logger
	observer   Observer

	id     string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WorkerPoolConfig configures a pool. Workers defaults to 4 and JobTimeout
// to 120s when zero.
type WorkerPoolConfig struct {
	Workers    int
	JobTimeout time.Duration
	Observer   Observer
}

func NewWorkerPool(q *Redis, mux *Mux, logger *zap.Logger, cfg WorkerPoolConfig) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}
	return &WorkerPool{
		queue:      q,
		mux:        mux,
		workers:    cfg.Workers,
		jobTimeout: cfg.JobTimeout,
		logger:     logger,
		observer:   cfg.Observer,
		id:         uuid.NewString(),
	}
}

// Start launches the workers, the delayed-job promoter and the heartbeat.
// It returns immediately; call Stop to drain.
func (p *WorkerPool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.heartbeat(ctx)

	p.wg.Add(1)
	go p.promoter(ctx)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Info("worker pool started",
		zap.String("worker_id", p.id),
		zap.Int("workers", p.workers))
}

// Stop cancels the pool and waits for in-flight jobs to finish.
func (p *WorkerPool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	cleanup, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p.queue.client.Del(cleanup, p.queue.workerKey(p.id))
	p.logger.Info("worker pool stopped", zap.String("worker_id", p.id))
}

func (p *WorkerPool) heartbeat(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	p.queue.client.Set(ctx, p.queue.workerKey(p.id), time.Now().Unix(), heartbeatTTL)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.queue.client.Set(ctx, p.queue.workerKey(p.id), time.Now().Unix(), heartbeatTTL).Err(); err != nil && ctx.Err() == nil {
				p.logger.Warn("heartbeat failed", zap.Error(err))
			}
		}
	}
}

func (p *WorkerPool) promoter(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(promoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.queue.promoteDue(ctx, time.Now()); err != nil && ctx.Err() == nil {
				p.logger.Warn("promote delayed jobs failed", zap.Error(err))
			}
		}
	}
}

func (p *WorkerPool) worker(ctx context.Context, n int) {
	defer p.wg.Done()

	log := p.logger.With(zap.Int("worker", n))
	for {
		if ctx.Err() != nil {
			return
		}

		job, ok, err := p.queue.pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("pop failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}

		p.run(ctx, log, job)
	}
}

func (p *WorkerPool) run(ctx context.Context, log *zap.Logger, job Job) {
	// Counters are bookkeeping; keep them off the job context so a
	// cancelled shutdown still decrements processing.
	counters := context.Background()
	p.queue.client.Incr(counters, p.queue.processingKey())
	defer p.queue.client.Decr(counters, p.queue.processingKey())

	handler, ok := p.mux.Handler(job.Name)
	if !ok {
		log.Error("no handler for job", zap.String("job", job.Name))
		p.queue.client.Incr(counters, p.queue.failedKey())
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	start := time.Now()
	err := handler(jobCtx, job.ID)
	elapsed := time.Since(start)

	result := "completed"
	if err != nil {
		result = "failed"
		log.Error("job failed",
			zap.String("job", job.Name),
			zap.String("entity_id", job.ID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		p.queue.client.Incr(counters, p.queue.failedKey())
	} else {
		log.Debug("job completed",
			zap.String("job", job.Name),
			zap.String("entity_id", job.ID),
			zap.Duration("elapsed", elapsed))
		p.queue.client.Incr(counters, p.queue.completedKey())
	}

	if p.observer != nil {
		p.observer.ObserveJob(job.Name, result, elapsed)
	}
}
