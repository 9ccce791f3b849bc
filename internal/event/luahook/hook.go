package luahook

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/evbus/internal/event"
	"github.com/dshills/evbus/internal/event/topic"
)

// Hook is a script file that can be reloaded in place. Its subscription
// stays the same across reloads.
type Hook struct {
	path string
	opts []Option

	mu     sync.RWMutex
	script *Script
}

// NewHook loads the script at path.
func NewHook(path string, opts ...Option) (*Hook, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	s, err := Load(abs, opts...)
	if err != nil {
		return nil, err
	}
	return &Hook{path: abs, opts: opts, script: s}, nil
}

// Path returns the absolute script path.
func (h *Hook) Path() string {
	return h.path
}

// Name returns the script name.
func (h *Hook) Name() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.script.Name()
}

// Handle implements event.Handler with the current script.
func (h *Hook) Handle(ctx context.Context, evt event.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.script.Handle(ctx, evt)
}

// Subscribe registers the hook on b for pattern. Hooks run on the bus
// worker pool.
func (h *Hook) Subscribe(b *event.Bus, pattern topic.Topic, opts ...event.SubscriptionOption) string {
	return b.Subscribe(pattern, event.Offload(h), opts...)
}

// Reload loads the script again. On error the previous version stays active.
// In-flight calls finish on the old version before it is closed.
func (h *Hook) Reload() error {
	s, err := Load(h.path, h.opts...)
	if err != nil {
		return err
	}

	h.mu.Lock()
	old := h.script
	h.script = s
	h.mu.Unlock()

	old.Close()
	return nil
}

// Close releases the current script.
func (h *Hook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.script.Close()
}

// Watch reloads hooks whenever their files are written or recreated, until
// ctx is done. Directories are watched rather than files so editors that
// save by rename are seen.
func Watch(ctx context.Context, hooks []*Hook, logger *slog.Logger) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	byPath := make(map[string][]*Hook, len(hooks))
	for _, h := range hooks {
		if _, ok := byPath[h.path]; !ok {
			dir := filepath.Dir(h.path)
			if err := fsw.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
		}
		byPath[h.path] = append(byPath[h.path], h)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			for _, h := range byPath[filepath.Clean(ev.Name)] {
				if err := h.Reload(); err != nil {
					logger.Warn("hook reload failed, keeping previous version", "path", h.path, "error", err)
					continue
				}
				logger.Info("hook reloaded", "path", h.path)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("hook watcher error", "error", err)
		}
	}
}
