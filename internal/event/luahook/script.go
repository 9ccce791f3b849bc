package luahook

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/evbus/internal/event"
	"github.com/dshills/evbus/internal/event/topic"
)

// DefaultTimeout bounds a single handle call.
const DefaultTimeout = 5 * time.Second

// handleFunc is the global a script must define.
const handleFunc = "handle"

// Script is a loaded Lua handler. It implements event.Handler and is safe
// for concurrent use; calls are serialized.
type Script struct {
	name    string
	state   *state
	timeout time.Duration
	bus     *event.Bus
	logger  *slog.Logger

	// ctx of the handle call in progress, guarded by state.mu.
	callCtx context.Context
}

// Option configures a Script.
type Option func(*Script)

// WithBus exposes bus.publish(topic, payload) to the script.
func WithBus(b *event.Bus) Option {
	return func(s *Script) {
		s.bus = b
	}
}

// WithLogger exposes log(level, msg) to the script.
func WithLogger(l *slog.Logger) Option {
	return func(s *Script) {
		s.logger = l
	}
}

// WithTimeout bounds each handle call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Script) {
		s.timeout = d
	}
}

// Load reads and compiles a script file.
func Load(path string, opts ...Option) (*Script, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadString(name, string(code), opts...)
}

// LoadString compiles a script from source. The script body runs once at
// load time and must define handle.
func LoadString(name, code string, opts ...Option) (*Script, error) {
	s := &Script{
		name:    name,
		state:   newState(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.installAPI()

	err := s.state.do(context.Background(), func(L *lua.LState) error {
		if err := L.DoString(code); err != nil {
			return fmt.Errorf("load script %s: %w", name, err)
		}
		if L.GetGlobal(handleFunc).Type() != lua.LTFunction {
			return fmt.Errorf("load script %s: %w", name, ErrNoHandle)
		}
		return nil
	})
	if err != nil {
		s.state.close()
		return nil, err
	}
	return s, nil
}

// Name returns the script name.
func (s *Script) Name() string {
	return s.name
}

// Handle implements event.Handler by calling the script's handle function.
func (s *Script) Handle(ctx context.Context, evt event.Event) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return s.state.do(ctx, func(L *lua.LState) error {
		s.callCtx = ctx
		defer func() { s.callCtx = nil }()

		results, err := call(L, handleFunc, eventTable(L, evt))
		if err != nil {
			return fmt.Errorf("script %s: %w", s.name, err)
		}
		if len(results) > 0 && results[0] == lua.LFalse {
			msg := ""
			if len(results) > 1 && results[1] != lua.LNil {
				msg = results[1].String()
			}
			return &RejectedError{Script: s.name, Message: msg}
		}
		return nil
	})
}

// Subscribe registers the script on b for pattern. Scripts run on the bus
// worker pool.
func (s *Script) Subscribe(b *event.Bus, pattern topic.Topic, opts ...event.SubscriptionOption) string {
	return b.Subscribe(pattern, event.Offload(s), opts...)
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.state.close()
}

func eventTable(L *lua.LState, evt event.Event) *lua.LTable {
	t := L.CreateTable(0, 5)
	t.RawSetString("id", lua.LString(evt.ID))
	t.RawSetString("topic", lua.LString(evt.Topic))
	t.RawSetString("payload", toLua(L, evt.Payload))
	t.RawSetString("metadata", toLua(L, evt.Metadata))
	t.RawSetString("timestamp", toLua(L, evt.Timestamp))
	return t
}

// installAPI registers the Go functions visible to the script.
func (s *Script) installAPI() {
	L := s.state.L

	if s.bus != nil {
		L.SetGlobal("bus", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"publish": s.luaPublish,
		}))
	}
	if s.logger != nil {
		L.SetGlobal("log", L.NewFunction(s.luaLog))
	}
}

// luaPublish implements bus.publish(topic, payload) -> event id.
func (s *Script) luaPublish(L *lua.LState) int {
	t := L.CheckString(1)
	payload := fromLua(L.Get(2))

	ctx := s.callCtx
	if ctx == nil {
		ctx = context.Background()
	}
	// The published event outlives this call.
	ctx = context.WithoutCancel(ctx)

	d := s.bus.PublishAsync(ctx, topic.Topic(t), payload, event.WithMeta("script", s.name))
	L.Push(lua.LString(d.EventID))
	return 1
}

// luaLog implements log(level, msg).
func (s *Script) luaLog(L *lua.LState) int {
	level := L.CheckString(1)
	msg := L.CheckString(2)

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	ctx := s.callCtx
	if ctx == nil {
		ctx = context.Background()
	}
	s.logger.Log(ctx, lvl, msg, "script", s.name)
	return 0
}
