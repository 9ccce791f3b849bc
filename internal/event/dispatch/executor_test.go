package dispatch

import (
	"context"
	"errors"
	"testing"
)

func TestResult_IsSuccess(t *testing.T) {
	tests := []struct {
		name    string
		result  Result
		success bool
	}{
		{"success", Result{Success: true}, true},
		{"error", Result{Error: errors.New("boom")}, false},
		{"panic", Result{Panicked: true, Error: &PanicError{Value: "x"}}, false},
		{"skipped", Result{Skipped: true, Error: context.Canceled}, false},
		{"success flag with error", Result{Success: true, Error: errors.New("boom")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.IsSuccess(); got != tt.success {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.success)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	fail := Result{Error: errors.New("boom")}
	ok := Result{Success: true}
	skipped := Result{Skipped: true, Error: context.Canceled}

	tests := []struct {
		name       string
		result     Result
		attempt    int
		maxRetries int
		want       Outcome
	}{
		{"success first attempt", ok, 1, 0, OutcomeSuccess},
		{"success after retries", ok, 3, 2, OutcomeSuccess},
		{"no retries configured", fail, 1, 0, OutcomeTerminal},
		{"first of two retries", fail, 1, 2, OutcomeRetry},
		{"second of two retries", fail, 2, 2, OutcomeRetry},
		{"retries exhausted", fail, 3, 2, OutcomeTerminal},
		{"skipped never retried", skipped, 1, 5, OutcomeTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.result, tt.attempt, tt.maxRetries); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutcome_String(t *testing.T) {
	if OutcomeRetry.String() != "retry" {
		t.Errorf("OutcomeRetry.String() = %q", OutcomeRetry.String())
	}
	if Outcome(42).String() != "unknown" {
		t.Errorf("Outcome(42).String() = %q", Outcome(42).String())
	}
}

func TestExecutor_Execute_Success(t *testing.T) {
	e := NewExecutor()
	called := false

	result := e.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	if !called {
		t.Error("task was not called")
	}
	if !result.IsSuccess() {
		t.Errorf("expected success, got %+v", result)
	}
}

func TestExecutor_Execute_Error(t *testing.T) {
	e := NewExecutor()
	want := errors.New("boom")

	result := e.Execute(context.Background(), func(ctx context.Context) error {
		return want
	})

	if result.Success {
		t.Error("expected failure")
	}
	if !errors.Is(result.Error, want) {
		t.Errorf("expected %v, got %v", want, result.Error)
	}
}

func TestExecutor_Execute_Panic(t *testing.T) {
	var gotValue any
	e := NewExecutor(WithPanicHandler(func(v any, stack []byte) {
		gotValue = v
		if len(stack) == 0 {
			t.Error("expected a stack trace")
		}
	}))

	result := e.Execute(context.Background(), func(ctx context.Context) error {
		panic("kaboom")
	})

	if !result.Panicked {
		t.Fatal("expected Panicked")
	}
	if !errors.Is(result.Error, ErrHandlerPanic) {
		t.Errorf("expected ErrHandlerPanic, got %v", result.Error)
	}
	var pe *PanicError
	if !errors.As(result.Error, &pe) || pe.Value != "kaboom" {
		t.Errorf("expected PanicError with value kaboom, got %v", result.Error)
	}
	if gotValue != "kaboom" {
		t.Errorf("panic handler got %v", gotValue)
	}
}

func TestExecutor_Execute_PanickingPanicHandler(t *testing.T) {
	e := NewExecutor(WithPanicHandler(func(any, []byte) {
		panic("handler of handler")
	}))

	result := e.Execute(context.Background(), func(ctx context.Context) error {
		panic("first")
	})

	if !result.Panicked {
		t.Error("expected Panicked")
	}
}

func TestExecutor_Execute_ContextCancelled(t *testing.T) {
	e := NewExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	result := e.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})

	if called {
		t.Error("task should not run with a cancelled context")
	}
	if !result.Skipped {
		t.Error("expected Skipped")
	}
	if !errors.Is(result.Error, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", result.Error)
	}
}

func TestInline_RunAndStats(t *testing.T) {
	d := NewInline()

	d.Run(context.Background(), func(ctx context.Context) error { return nil })
	d.Run(context.Background(), func(ctx context.Context) error { return errors.New("x") })
	d.Run(context.Background(), func(ctx context.Context) error { panic("y") })

	stats := d.Stats()
	if stats.Processed != 3 {
		t.Errorf("Processed = %d, want 3", stats.Processed)
	}
	if stats.Succeeded != 1 || stats.Failed != 1 || stats.Panicked != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
