// ABOUTME: Per-session Lua scripting engine cross-wired to a client and world
// ABOUTME: Exposes send/log/tts to scripts and forwards received lines to on_line

package scripting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/cocomud/cocomud/internal/engine"
)

// ErrClosed is returned when running code on a closed engine.
var ErrClosed = errors.New("scripting engine closed")

// lineHook is the global function called for every received line.
const lineHook = "on_line"

// Sender is implemented by clients that can write to the world.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Engine is the scripting engine of one session.
type Engine struct {
	engine *engine.Engine
	client engine.Client
	world  *engine.World
	logger *slog.Logger

	mu     sync.Mutex
	state  *lua.State
	closed bool
}

// New creates a scripting engine bound to e, c and w.
func New(e *engine.Engine, c engine.Client, w *engine.World) (*Engine, error) {
	logger := slog.Default()
	if e != nil {
		ch, err := e.Channel("scripting")
		if err != nil {
			return nil, fmt.Errorf("acquiring scripting channel: %w", err)
		}
		logger = ch.Logger
	}
	if w != nil {
		logger = logger.With("world", w.Name)
	}

	se := &Engine{
		engine: e,
		client: c,
		world:  w,
		logger: logger,
		state:  lua.NewState(),
	}
	lua.OpenLibraries(se.state)
	se.register()
	return se, nil
}

// Factory adapts New to engine.ScriptingFactory.
func Factory(e *engine.Engine, c engine.Client, w *engine.World) (engine.ScriptingEngine, error) {
	return New(e, c, w)
}

// Client returns the client the engine sends through.
func (s *Engine) Client() engine.Client { return s.client }

// World returns the world the engine runs for.
func (s *Engine) World() *engine.World { return s.world }

// Engine returns the owning engine.
func (s *Engine) Engine() *engine.Engine { return s.engine }

func (s *Engine) register() {
	l := s.state

	name := ""
	if s.world != nil {
		name = s.world.Name
	}
	l.PushString(name)
	l.SetGlobal("world")

	l.Register("send", func(l *lua.State) int {
		text := lua.CheckString(l, 1)
		sender, ok := s.client.(Sender)
		if !ok {
			lua.Errorf(l, "send: client cannot send")
			return 0
		}
		if err := sender.Send(context.Background(), text); err != nil {
			lua.Errorf(l, "send: %s", err.Error())
		}
		return 0
	})

	l.Register("log", func(l *lua.State) int {
		s.logger.Info(lua.CheckString(l, 1))
		return 0
	})

	l.Register("tts", func(l *lua.State) int {
		on := false
		if s.engine != nil {
			on = s.engine.TTSOn()
		}
		l.PushBoolean(on)
		return 1
	})
}

// Execute runs a chunk of Lua code.
func (s *Engine) Execute(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	err := lua.DoString(s.state, code)
	// Drop results and error values left by the chunk.
	s.state.SetTop(0)
	if err != nil {
		s.logger.Warn("script failed", "error", err)
		return fmt.Errorf("executing script: %w", err)
	}
	return nil
}

// HandleLine calls the script's on_line function, if defined.
func (s *Engine) HandleLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	l := s.state
	l.Global(lineHook)
	if !l.IsFunction(-1) {
		l.Pop(1)
		return
	}
	l.PushString(line)
	if err := l.ProtectedCall(1, 0, 0); err != nil {
		// The error message is left on the stack.
		l.Pop(1)
		s.logger.Warn("on_line failed", "error", err)
	}
}

// Close releases the Lua state. Later calls to Execute fail with ErrClosed.
func (s *Engine) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.state = nil
	return nil
}
