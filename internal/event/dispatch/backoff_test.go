package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_Delay(t *testing.T) {
	tests := []struct {
		name    string
		backoff Backoff
		attempt int
		want    time.Duration
	}{
		{"first retry is base", Backoff{Base: 10 * time.Millisecond}, 1, 10 * time.Millisecond},
		{"second doubles", Backoff{Base: 10 * time.Millisecond}, 2, 20 * time.Millisecond},
		{"third quadruples", Backoff{Base: 10 * time.Millisecond}, 3, 40 * time.Millisecond},
		{"capped", Backoff{Base: 10 * time.Millisecond, Max: 25 * time.Millisecond}, 3, 25 * time.Millisecond},
		{"zero base", Backoff{}, 4, 0},
		{"attempt below one", Backoff{Base: time.Second}, 0, time.Second},
		{"huge attempt does not overflow", Backoff{Base: time.Second}, 200, time.Duration(1 << 62)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.backoff.Delay(tt.attempt)
			if tt.name == "huge attempt does not overflow" {
				if got <= 0 {
					t.Errorf("Delay() overflowed to %v", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestSleep(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Sleep() returned %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Sleep() returned after %v", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
