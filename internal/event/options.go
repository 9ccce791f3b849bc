package event

import (
	"log/slog"
	"time"

	"github.com/dshills/evbus/internal/event/dispatch"
)

// Option configures a Bus.
type Option func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// workerCount is the number of goroutines running blocking handlers.
	workerCount int

	// queueSize is how many blocking invocations may wait for a worker.
	queueSize int

	// retryBaseDelay is the backoff before the first retry.
	retryBaseDelay time.Duration

	// maxRetryDelay caps the backoff; zero disables the cap.
	maxRetryDelay time.Duration

	// logger receives bus diagnostics.
	logger *slog.Logger

	// panicHandler observes recovered handler panics.
	panicHandler dispatch.PanicHandler
}

// defaultBusConfig returns sensible default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		workerCount:    8,
		queueSize:      256,
		retryBaseDelay: 100 * time.Millisecond,
		maxRetryDelay:  30 * time.Second,
	}
}

// WithWorkerCount sets the number of worker goroutines for blocking handlers.
func WithWorkerCount(count int) Option {
	return func(c *busConfig) {
		if count > 0 {
			c.workerCount = count
		}
	}
}

// WithQueueSize sets how many blocking invocations may wait for a worker.
func WithQueueSize(size int) Option {
	return func(c *busConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithRetryBaseDelay sets the delay before the first retry. Later retries
// double it.
func WithRetryBaseDelay(d time.Duration) Option {
	return func(c *busConfig) {
		if d >= 0 {
			c.retryBaseDelay = d
		}
	}
}

// WithMaxRetryDelay caps the retry backoff. Zero removes the cap.
func WithMaxRetryDelay(d time.Duration) Option {
	return func(c *busConfig) {
		if d >= 0 {
			c.maxRetryDelay = d
		}
	}
}

// WithLogger sets the logger for bus diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *busConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPanicHandler sets a callback observing recovered handler panics.
func WithPanicHandler(h dispatch.PanicHandler) Option {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}
