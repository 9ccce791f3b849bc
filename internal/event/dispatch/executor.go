package dispatch

import (
	"context"
	"runtime/debug"
	"time"
)

// Executor makes exactly one attempt at a task and reports it as a Result.
// Inline and Pool both run tasks through it.
type Executor struct {
	panicHandler PanicHandler
}

// NewExecutor returns an Executor configured by opts.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithPanicHandler registers a callback that observes recovered panics
// before they are turned into a *PanicError.
func WithPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		e.panicHandler = h
	}
}

// Execute attempts task once.
//
// A ctx that is already done means the attempt never starts: the Result is
// Skipped and carries ctx.Err(). Otherwise the task runs to completion and
// its error, or a recovered panic, ends up in Result.Error. Duration covers
// the task call only.
func (e *Executor) Execute(ctx context.Context, task Task) (result Result) {
	if err := ctx.Err(); err != nil {
		return Result{Error: err, Skipped: true}
	}

	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)

		r := recover()
		if r == nil {
			return
		}
		stack := debug.Stack()
		result = Result{
			Error:    &PanicError{Value: r, Stack: stack},
			Panicked: true,
			Duration: result.Duration,
		}
		e.observePanic(r, stack)
	}()

	result.Error = task(ctx)
	result.Success = result.Error == nil
	return result
}

// observePanic calls the panic handler, swallowing any panic it raises so a
// worker survives.
func (e *Executor) observePanic(v any, stack []byte) {
	if e.panicHandler == nil {
		return
	}
	defer func() { _ = recover() }()
	e.panicHandler(v, stack)
}
