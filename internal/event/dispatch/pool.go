package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Pool executes tasks on a bounded set of worker goroutines.
// Run hands a task to a worker and waits for its result, so a blocking task
// occupies a worker rather than the caller's goroutine.
type Pool struct {
	// Configuration
	queueSize   int
	workerCount int

	// State
	mu      sync.RWMutex // guards queue send against close
	queue   chan poolTask
	running atomic.Bool
	wg      sync.WaitGroup

	// workers holds the goroutine ids of live workers.
	workers sync.Map

	panicHandler PanicHandler

	// Stats
	processed   atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	skipped     atomic.Uint64
	totalTimeNs atomic.Int64
}

type poolTask struct {
	ctx  context.Context
	task Task
	done chan<- Result
}

// NewPool creates a new worker pool. Call Start before Run.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		queueSize:   256,
		workerCount: 8,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithQueueSize sets the task queue size.
func WithQueueSize(size int) PoolOption {
	return func(p *Pool) {
		if size > 0 {
			p.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) PoolOption {
	return func(p *Pool) {
		if count > 0 {
			p.workerCount = count
		}
	}
}

// WithPoolPanicHandler sets the panic handler used by the workers.
func WithPoolPanicHandler(h PanicHandler) PoolOption {
	return func(p *Pool) {
		p.panicHandler = h
	}
}

// Start starts the worker goroutines.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return ErrAlreadyRunning
	}

	p.queue = make(chan poolTask, p.queueSize)
	p.running.Store(true)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return nil
}

// Stop stops the pool gracefully.
// Queued tasks still run; Stop waits for them or for ctx to be done.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running.Load() {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.running.Store(false)
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnWorker reports whether the caller is running on one of the pool's
// workers. Run must not be awaited from a worker: the task would queue behind
// the worker waiting for it.
func (p *Pool) OnWorker() bool {
	id := goroutineID()
	if id == 0 {
		return false
	}
	_, ok := p.workers.Load(id)
	return ok
}

// Run queues the task, waits for a worker to execute it, and returns the
// result. If the pool is stopped, or ctx is done before the task could be
// queued, the task is skipped.
func (p *Pool) Run(ctx context.Context, task Task) Result {
	p.processed.Add(1)

	done := make(chan Result, 1)
	if err := p.submit(poolTask{ctx: ctx, task: task, done: done}); err != nil {
		p.skipped.Add(1)
		return Result{Error: err, Skipped: true}
	}
	return <-done
}

func (p *Pool) submit(t poolTask) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running.Load() {
		return ErrNotRunning
	}

	select {
	case p.queue <- t:
		return nil
	case <-t.ctx.Done():
		return t.ctx.Err()
	}
}

// worker processes tasks from the queue until it is closed.
func (p *Pool) worker() {
	defer p.wg.Done()

	if id := goroutineID(); id != 0 {
		p.workers.Store(id, struct{}{})
		defer p.workers.Delete(id)
	}

	executor := NewExecutor(WithPanicHandler(p.panicHandler))

	for t := range p.queue {
		result := executor.Execute(t.ctx, t.task)
		p.record(result)
		t.done <- result
	}
}

func (p *Pool) record(result Result) {
	p.totalTimeNs.Add(result.Duration.Nanoseconds())

	switch {
	case result.Skipped:
		p.skipped.Add(1)
	case result.Panicked:
		p.panicked.Add(1)
	case result.Error != nil:
		p.failed.Add(1)
	case result.Success:
		p.succeeded.Add(1)
	}
}

// QueueDepth returns the current number of tasks waiting for a worker.
func (p *Pool) QueueDepth() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running.Load() {
		return 0
	}
	return len(p.queue)
}

// Stats returns pool statistics.
func (p *Pool) Stats() RunnerStats {
	s := RunnerStats{
		Processed:     p.processed.Load(),
		Succeeded:     p.succeeded.Load(),
		Failed:        p.failed.Load(),
		Panicked:      p.panicked.Load(),
		Skipped:       p.skipped.Load(),
		QueueDepth:    p.QueueDepth(),
		TotalDuration: time.Duration(p.totalTimeNs.Load()),
	}
	if n := s.Executed(); n > 0 {
		s.AvgDuration = s.TotalDuration / time.Duration(n)
	}
	return s
}
