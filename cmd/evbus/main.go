// Package main is the entry point for evbus, a small driver that publishes
// events read from stdin onto an in-process bus with Lua hooks attached.
//
// Each input line is "<topic> [payload]". A payload that is valid JSON is
// passed through as JSON; anything else is published as a string.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dshills/evbus/internal/config"
	"github.com/dshills/evbus/internal/event"
	"github.com/dshills/evbus/internal/event/luahook"
	"github.com/dshills/evbus/internal/event/topic"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// shutdownTimeout bounds how long in-flight deliveries may take on exit.
const shutdownTimeout = 10 * time.Second

type options struct {
	ConfigPath string
	Script     string
	Pattern    string
	LogLevel   string
	Tap        bool
	Watch      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if opts.Script != "" {
		cfg.Hooks = append(cfg.Hooks, config.HookConfig{Script: opts.Script, Pattern: opts.Pattern})
	}

	logger := setupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := event.New(append(cfg.Bus.Options(), event.WithLogger(logger))...)

	hooks, err := attachHooks(bus, cfg.Hooks, logger)
	defer func() {
		for _, h := range hooks {
			h.Close()
		}
	}()
	if err != nil {
		logger.Error("loading hooks", "error", err)
		_ = bus.Close(context.Background())
		return 1
	}

	bus.SubscribeFunc(event.DeadLetterTopic, func(_ context.Context, evt event.Event) error {
		dl, _ := evt.Payload.(event.DeadLetter)
		logger.Warn("dead letter",
			"topic", dl.OriginalTopic,
			"event_id", dl.EventID,
			"subscription_id", dl.SubscriptionID,
			"attempts", dl.Attempts,
			"error", dl.Error,
		)
		return nil
	})

	if opts.Tap {
		bus.Subscribe(topic.WildcardMulti, newTap(os.Stdout), event.WithPriority(event.PriorityLow))
	}

	if opts.Watch && len(hooks) > 0 {
		watchCtx, stopWatch := context.WithCancel(ctx)
		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			if err := luahook.Watch(watchCtx, hooks, logger); err != nil {
				logger.Error("watching hooks", "error", err)
			}
		}()
		defer func() {
			stopWatch()
			<-watchDone
		}()
	}

	readErr := publishLines(ctx, bus, os.Stdin, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := bus.Close(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
		return 1
	}

	stats := bus.Stats()
	logger.Info("done",
		"published", stats.EventsPublished,
		"delivered", stats.EventsDelivered,
		"retries", stats.Retries,
		"dead_lettered", stats.DeadLettered,
	)
	logger.Debug("handler runners",
		"inline_runs", stats.Inline.Executed(),
		"inline_skipped", stats.Inline.Skipped,
		"pool_runs", stats.Pool.Executed(),
		"pool_skipped", stats.Pool.Skipped,
		"pool_avg", stats.Pool.AvgDuration,
		"errors", stats.HandlerErrors,
		"panics", stats.HandlerPanics,
	)

	if readErr != nil && !errors.Is(readErr, context.Canceled) {
		logger.Error("reading input", "error", readErr)
		return 1
	}
	return 0
}

// attachHooks loads every configured script and subscribes it. Hooks
// loaded before a failure are returned so the caller can close them.
func attachHooks(bus *event.Bus, configs []config.HookConfig, logger *slog.Logger) ([]*luahook.Hook, error) {
	var hooks []*luahook.Hook
	for _, c := range configs {
		h, err := luahook.NewHook(c.Script, luahook.WithBus(bus), luahook.WithLogger(logger))
		if err != nil {
			return hooks, err
		}
		hooks = append(hooks, h)

		id := h.Subscribe(bus, topic.Topic(c.Pattern), c.SubscriptionOptions()...)
		logger.Info("hook attached", "script", h.Name(), "pattern", c.Pattern, "subscription_id", id)
	}
	return hooks, nil
}

// publishLines publishes one event per input line until EOF or ctx ends.
func publishLines(ctx context.Context, bus *event.Bus, r io.Reader, logger *slog.Logger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		t, payload, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if err := bus.Publish(ctx, t, payload); err != nil {
			return err
		}
		logger.Debug("published", "topic", t)
	}
	return scanner.Err()
}

// parseLine splits "<topic> [payload]". Blank lines and lines starting with
// '#' followed by a space are skipped.
func parseLine(line string) (topic.Topic, any, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "# ") {
		return "", nil, false
	}

	name, rest, _ := strings.Cut(line, " ")
	return topic.Topic(name), decodePayload(strings.TrimSpace(rest)), true
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.Script, "script", "", "Lua hook script to attach")
	flag.StringVar(&opts.Pattern, "pattern", "#", "Topic pattern for -script")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
	flag.BoolVar(&opts.Tap, "tap", false, "Print every event as a JSON line on stdout")
	flag.BoolVar(&opts.Watch, "watch", false, "Reload hook scripts when their files change")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "evbus - in-process event bus driver\n\n")
		fmt.Fprintf(os.Stderr, "Usage: evbus [options] < events\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  echo 'orders.created {\"id\":1}' | evbus -tap\n")
		fmt.Fprintf(os.Stderr, "  evbus -script audit.lua -pattern 'orders.#' < events.txt\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("evbus %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	return opts
}
