// ABOUTME: World entity holding a game endpoint and its live session handles
// ABOUTME: Client and scripting engine are always both set or both unset

package engine

import (
	"fmt"
	"sync"
)

// SessionState is the lifecycle state of a world's session.
type SessionState int

const (
	// StateUnopened means no session was ever opened for the world.
	StateUnopened SessionState = iota
	// StateOpening means Open is building the session.
	StateOpening
	// StateOpen means the client and scripting engine are wired.
	StateOpen
	// StateClosed means the session was closed.
	StateClosed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Character is a character played on a world.
type Character struct {
	Name     string `toml:"name"`
	Username string `toml:"username"`
}

// World is a configured game endpoint.
type World struct {
	Name       string
	Hostname   string
	Port       int
	Protocol   string
	Encoding   string
	Characters []Character

	mu        sync.RWMutex
	state     SessionState
	engine    *Engine
	client    Client
	scripting ScriptingEngine
}

// NewWorld creates a world with no session.
func NewWorld(name, hostname string, port int) *World {
	return &World{
		Name:     name,
		Hostname: hostname,
		Port:     port,
	}
}

// Engine returns the owning engine, or nil before Load.
func (w *World) Engine() *Engine {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.engine
}

// Client returns the live client, or nil.
func (w *World) Client() Client {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.client
}

// ScriptingEngine returns the live scripting engine, or nil.
func (w *World) ScriptingEngine() ScriptingEngine {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.scripting
}

// Session returns the client and scripting engine in one consistent read.
func (w *World) Session() (Client, ScriptingEngine) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.client, w.scripting
}

// State returns the session state.
func (w *World) State() SessionState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *World) setEngine(e *Engine) {
	w.mu.Lock()
	w.engine = e
	w.mu.Unlock()
}

// beginOpen moves the world to Opening and returns the state to restore on
// failure.
func (w *World) beginOpen() (SessionState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateOpening, StateOpen:
		return w.state, fmt.Errorf("%w: %s is %s", ErrSessionActive, w.Name, w.state)
	}
	prev := w.state
	w.state = StateOpening
	return prev, nil
}

func (w *World) abortOpen(prev SessionState) {
	w.mu.Lock()
	w.state = prev
	w.mu.Unlock()
}

// wire publishes a fully built session in one step.
func (w *World) wire(c Client, se ScriptingEngine) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.client = c
	c.SetScriptingEngine(se)
	w.scripting = se
	w.state = StateOpen
}

// unwire detaches the session and returns it for closing.
func (w *World) unwire() (Client, ScriptingEngine, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateOpen {
		return nil, nil, false
	}
	c, se := w.client, w.scripting
	w.client = nil
	w.scripting = nil
	w.state = StateClosed
	return c, se, true
}
