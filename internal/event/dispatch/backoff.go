package dispatch

import (
	"context"
	"time"
)

// Backoff computes exponential retry delays.
type Backoff struct {
	// Base is the delay before the first retry.
	Base time.Duration

	// Max caps the delay. Zero means no cap.
	Max time.Duration
}

// Delay returns the wait before retrying after the given failed attempt,
// counted from 1: Base * 2^(attempt-1).
func (b Backoff) Delay(attempt int) time.Duration {
	if b.Base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}

	d := b.Base
	for i := 1; i < attempt; i++ {
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
		// Stop doubling before the duration overflows.
		if d > time.Duration(1<<62)/2 {
			break
		}
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
