// Package dispatch runs event handler invocations for the event bus.
//
// It knows nothing about events or topics. A single invocation is a Task,
// a closure over the handler and its event, and the package provides the
// machinery around it: panic-safe execution, two execution strategies, the
// retry decision, and backoff timing.
//
// # Runners
//
// Two Runner implementations are provided, unified behind one
// "run and await completion" operation:
//
//   - Inline: executes the task in the caller's goroutine. Used for
//     context-aware handlers that cooperate with cancellation.
//
//   - Pool: executes the task on a bounded set of worker goroutines and
//     waits for it. Used for blocking handlers so they never tie up the
//     publisher beyond the wait itself.
//
// # Retry Decisions
//
// Runners return a Result. Classify turns a Result plus the attempt count
// into an Outcome (success, retry, or terminal failure), so the caller's
// retry loop is a plain state transition:
//
//	for attempt := 1; ; attempt++ {
//	    res := runner.Run(ctx, task)
//	    switch dispatch.Classify(res, attempt, maxRetries) {
//	    case dispatch.OutcomeSuccess:
//	        return res
//	    case dispatch.OutcomeRetry:
//	        if err := dispatch.Sleep(ctx, backoff.Delay(attempt)); err != nil {
//	            return res
//	        }
//	    case dispatch.OutcomeTerminal:
//	        return res
//	    }
//	}
//
// # Panic Recovery
//
// Panics in tasks are recovered and reported as a *PanicError, which matches
// ErrHandlerPanic with errors.Is. An optional PanicHandler observes them.
package dispatch
