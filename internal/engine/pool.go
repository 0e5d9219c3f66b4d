package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhutter/taskmill/internal/events"
)

// PoolConfig holds configuration for the worker pool.
type PoolConfig struct {
	// WorkerCount is the fixed number of workers. The pool size cannot
	// change within a run.
	WorkerCount int

	// QueuePollingDelay is the fixed delay between invocations of each
	// worker. The pool does not adapt it based on invocation results.
	QueuePollingDelay time.Duration
}

// DefaultPoolConfig returns a PoolConfig with reasonable defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		WorkerCount:       2,
		QueuePollingDelay: 5 * time.Second,
	}
}

// Pool owns a fixed set of workers and drives each on its own fixed-delay
// loop. Workers run independently: a long invocation on one worker never
// blocks another, and invocation k+1 of a worker never starts before
// invocation k has returned.
type Pool struct {
	workers []*Worker
	delay   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewPool creates a pool of cfg.WorkerCount workers with ordinals 0..N-1 and
// freshly generated UUIDs, all sharing the given queue, registry, enablement
// controller, and event sink.
func NewPool(
	queue TaskQueue,
	registry ProcessorFinder,
	enablement EnablementController,
	sink events.Sink,
	cfg PoolConfig,
	log *slog.Logger,
) (*Pool, error) {
	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		log.Warn("invalid worker count specified, using default",
			"specified_count", cfg.WorkerCount,
			"default_count", 1)
	}

	delay := cfg.QueuePollingDelay
	if delay <= 0 {
		delay = DefaultPoolConfig().QueuePollingDelay
		log.Warn("invalid queue polling delay specified, using default",
			"specified_delay", cfg.QueuePollingDelay,
			"default_delay", delay)
	}

	ctx, cancel := context.WithCancel(context.Background())

	workers := make([]*Worker, 0, workerCount)
	for i := 0; i < workerCount; i++ {
		identity, err := NewWorkerIdentity(i)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create worker identity: %w", err)
		}
		workers = append(workers, NewWorker(identity, queue, registry, enablement, sink, log))
	}

	return &Pool{
		workers: workers,
		delay:   delay,
		ctx:     ctx,
		cancel:  cancel,
		logger:  log,
	}, nil
}

// Start launches one polling loop per worker. It is safe to call once;
// subsequent calls are no-ops.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting worker pool",
			"worker_count", len(p.workers),
			"queue_polling_delay", p.delay)

		for _, w := range p.workers {
			p.wg.Add(1)
			go p.loop(w)
		}
	})
}

// Stop shuts the pool down gracefully: no new invocations are scheduled, and
// Stop blocks until every in-flight invocation (including its finalize step)
// has returned.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("stopping worker pool")
		p.cancel()
		p.wg.Wait()
		p.logger.Info("worker pool stopped")
	})
}

// Workers returns the identities of the pool's workers in ordinal order.
func (p *Pool) Workers() []WorkerIdentity {
	identities := make([]WorkerIdentity, len(p.workers))
	for i, w := range p.workers {
		identities[i] = w.Identity()
	}
	return identities
}

// loop drives one worker at a fixed delay. Invocations run synchronously in
// the loop, so per-worker sequencing holds by construction. The invocation
// itself runs on a background context: shutdown stops scheduling but never
// cancels a claim, a running processor, or a finalize in flight.
func (p *Pool) loop(w *Worker) {
	defer p.wg.Done()

	w.logger.Debug("starting worker loop")

	ticker := time.NewTicker(p.delay)
	defer ticker.Stop()

	// First invocation runs immediately so a freshly started pool drains
	// a pre-loaded queue without waiting out the delay.
	result := w.Process(context.Background())
	w.logger.Debug("worker invocation finished", "result", result.String())

	for {
		select {
		case <-p.ctx.Done():
			w.logger.Debug("stopping worker loop")
			return
		case <-ticker.C:
			result := w.Process(context.Background())
			w.logger.Debug("worker invocation finished", "result", result.String())
		}
	}
}
