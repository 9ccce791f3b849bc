package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dshills/evbus/internal/event"
)

// Duration is a time.Duration that reads "250ms"-style strings from TOML
// and the environment.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the complete evbus configuration.
type Config struct {
	Bus   BusConfig    `toml:"bus" envconfig:"BUS"`
	Log   LogConfig    `toml:"log" envconfig:"LOG"`
	Hooks []HookConfig `toml:"hooks" ignored:"true"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	// Workers is the number of goroutines running blocking handlers.
	Workers int `toml:"workers" envconfig:"WORKERS"`
	// QueueSize bounds the pending blocking-handler queue. Zero keeps the default.
	QueueSize int `toml:"queue_size" envconfig:"QUEUE_SIZE"`
	// RetryBaseDelay is the delay before the first retry; it doubles per attempt.
	RetryBaseDelay Duration `toml:"retry_base_delay" envconfig:"RETRY_BASE_DELAY"`
	// MaxRetryDelay caps the retry delay. Zero means no cap.
	MaxRetryDelay Duration `toml:"max_retry_delay" envconfig:"MAX_RETRY_DELAY"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" envconfig:"LEVEL"`
	// Format is "text" or "json".
	Format string `toml:"format" envconfig:"FORMAT"`
}

// HookConfig subscribes a Lua script to a pattern.
type HookConfig struct {
	Script     string `toml:"script"`
	Pattern    string `toml:"pattern"`
	Priority   int    `toml:"priority"`
	Once       bool   `toml:"once"`
	MaxRetries int    `toml:"max_retries"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bus: BusConfig{
			Workers:        8,
			QueueSize:      256,
			RetryBaseDelay: Duration(100 * time.Millisecond),
			MaxRetryDelay:  Duration(30 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks every setting and returns all problems joined.
func (c Config) Validate() error {
	var errs []error
	add := func(path string, value any, msg string) {
		errs = append(errs, &ValidationError{Path: path, Value: value, Message: msg})
	}

	if c.Bus.Workers < 1 {
		add("bus.workers", c.Bus.Workers, "must be at least 1")
	}
	if c.Bus.QueueSize < 0 {
		add("bus.queue_size", c.Bus.QueueSize, "must not be negative")
	}
	if c.Bus.RetryBaseDelay < 0 {
		add("bus.retry_base_delay", c.Bus.RetryBaseDelay.Std(), "must not be negative")
	}
	if c.Bus.MaxRetryDelay < 0 {
		add("bus.max_retry_delay", c.Bus.MaxRetryDelay.Std(), "must not be negative")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		add("log.level", c.Log.Level, "must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		add("log.format", c.Log.Format, `must be "text" or "json"`)
	}
	for i, h := range c.Hooks {
		if h.Script == "" {
			add(fmt.Sprintf("hooks[%d].script", i), h.Script, "is required")
		}
		if h.Pattern == "" {
			add(fmt.Sprintf("hooks[%d].pattern", i), h.Pattern, "is required")
		}
		if h.MaxRetries < 0 {
			add(fmt.Sprintf("hooks[%d].max_retries", i), h.MaxRetries, "must not be negative")
		}
	}

	return errors.Join(errs...)
}

// Options converts the bus settings into event bus options.
func (b BusConfig) Options() []event.Option {
	return []event.Option{
		event.WithWorkerCount(b.Workers),
		event.WithQueueSize(b.QueueSize),
		event.WithRetryBaseDelay(b.RetryBaseDelay.Std()),
		event.WithMaxRetryDelay(b.MaxRetryDelay.Std()),
	}
}

// SubscriptionOptions converts a hook's settings into subscription options.
func (h HookConfig) SubscriptionOptions() []event.SubscriptionOption {
	opts := []event.SubscriptionOption{
		event.WithPriority(event.Priority(h.Priority)),
		event.WithMaxRetries(h.MaxRetries),
	}
	if h.Once {
		opts = append(opts, event.WithOnce())
	}
	return opts
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(l.Level))
	return lvl, err
}
