package dispatch

import (
	"context"
	"sync/atomic"
	"time"
)

// Inline executes tasks synchronously in the caller's goroutine.
type Inline struct {
	executor *Executor

	// Stats
	dispatched  atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	skipped     atomic.Uint64
	totalTimeNs atomic.Int64
}

// NewInline creates a new inline runner.
func NewInline(opts ...ExecutorOption) *Inline {
	return &Inline{executor: NewExecutor(opts...)}
}

// Run executes the task and blocks until it completes or panics.
func (d *Inline) Run(ctx context.Context, task Task) Result {
	d.dispatched.Add(1)

	result := d.executor.Execute(ctx, task)
	d.totalTimeNs.Add(result.Duration.Nanoseconds())

	switch {
	case result.Skipped:
		d.skipped.Add(1)
	case result.Panicked:
		d.panicked.Add(1)
	case result.Error != nil:
		d.failed.Add(1)
	case result.Success:
		d.succeeded.Add(1)
	}

	return result
}

// Stats returns runner statistics.
// Counters are read individually and may be slightly inconsistent under
// concurrent updates.
func (d *Inline) Stats() RunnerStats {
	s := RunnerStats{
		Processed:     d.dispatched.Load(),
		Succeeded:     d.succeeded.Load(),
		Failed:        d.failed.Load(),
		Panicked:      d.panicked.Load(),
		Skipped:       d.skipped.Load(),
		TotalDuration: time.Duration(d.totalTimeNs.Load()),
	}
	if n := s.Executed(); n > 0 {
		s.AvgDuration = s.TotalDuration / time.Duration(n)
	}
	return s
}

// Executed returns the number of tasks that actually ran.
func (s RunnerStats) Executed() uint64 {
	return s.Succeeded + s.Failed + s.Panicked
}

// RunnerStats contains statistics for a runner.
type RunnerStats struct {
	// Processed is the number of tasks that have been handed to the runner.
	Processed uint64

	// Succeeded is the number of successful task executions.
	Succeeded uint64

	// Failed is the number of tasks that returned errors.
	Failed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Skipped is the number of tasks never executed (cancelled or rejected).
	Skipped uint64

	// QueueDepth is the current number of tasks waiting for a worker.
	QueueDepth int

	// TotalDuration is the cumulative time spent in tasks.
	TotalDuration time.Duration

	// AvgDuration is the average task execution time.
	AvgDuration time.Duration
}
