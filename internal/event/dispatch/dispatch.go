package dispatch

import (
	"context"
	"time"
)

// Task is a single handler invocation.
type Task func(ctx context.Context) error

// Runner executes a task and waits for it to finish.
type Runner interface {
	Run(ctx context.Context, task Task) Result
}

// Result represents the outcome of one task execution.
type Result struct {
	// Success is true if the task completed without error or panic.
	Success bool

	// Error is the error returned by the task, or a *PanicError.
	Error error

	// Panicked is true if the task panicked.
	Panicked bool

	// Duration is how long the task took to execute.
	Duration time.Duration

	// Skipped is true if the task was not executed (e.g., context cancelled).
	Skipped bool
}

// IsSuccess returns true if the result indicates successful execution.
func (r Result) IsSuccess() bool {
	return r.Success && !r.Panicked && r.Error == nil
}

// Outcome is the retry decision for a Result.
type Outcome int

const (
	// OutcomeSuccess means the invocation succeeded.
	OutcomeSuccess Outcome = iota

	// OutcomeRetry means the invocation failed and should be attempted again.
	OutcomeRetry

	// OutcomeTerminal means the invocation failed and retries are exhausted.
	OutcomeTerminal
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	case OutcomeTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Classify decides what to do after the given attempt (counted from 1).
// A failed attempt is retried while attempt <= maxRetries, so a task is run
// at most maxRetries+1 times. Skipped tasks are never retried.
func Classify(r Result, attempt, maxRetries int) Outcome {
	switch {
	case r.IsSuccess():
		return OutcomeSuccess
	case r.Skipped:
		return OutcomeTerminal
	case attempt <= maxRetries:
		return OutcomeRetry
	default:
		return OutcomeTerminal
	}
}

// PanicHandler is called when a task panics during execution.
// It receives the panic value and the stack trace.
type PanicHandler func(panicValue any, stack []byte)
