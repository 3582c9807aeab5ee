// ABOUTME: Engine facade owning the log registry, settings store and world sessions
// ABOUTME: Builds and cross-wires a client and scripting engine for each opened world

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/cocomud/cocomud/internal/help"
	"github.com/cocomud/cocomud/internal/logging"
	"github.com/cocomud/cocomud/internal/settings"
)

var (
	// ErrSessionActive indicates the world already has a session opening or open.
	ErrSessionActive = errors.New("session already active")

	// ErrWorldNotFound indicates the named world is not known to the engine.
	ErrWorldNotFound = errors.New("world not found")

	// ErrDuplicateWorld indicates a world with the same name is already known.
	ErrDuplicateWorld = errors.New("world already exists")

	// ErrNoFactory indicates the engine was built without a client or scripting factory.
	ErrNoFactory = errors.New("session factory not configured")
)

// Client is a network session with a world.
type Client interface {
	Host() string
	Port() int
	ScriptingEngine() ScriptingEngine
	SetScriptingEngine(ScriptingEngine)
	Close() error
}

// ScriptingEngine runs user scripts for one session.
type ScriptingEngine interface {
	Client() Client
	World() *World
	Close() error
}

// ClientFactory builds an unconnected client for a world.
type ClientFactory func(host string, port int, e *Engine, w *World) (Client, error)

// ScriptingFactory builds the scripting engine bound to a client and world.
type ScriptingFactory func(e *Engine, c Client, w *World) (ScriptingEngine, error)

// Config holds the collaborators and paths used by New.
type Config struct {
	// LogDir receives main.log and the per-channel files. Defaults to "logs".
	LogDir string
	// DocDir holds the localized help documents. Defaults to "doc".
	DocDir string
	// Backend persists the settings layers. Nil keeps them in memory.
	Backend settings.Backend

	NewClient          ClientFactory
	NewScriptingEngine ScriptingFactory

	// Viewer presents help documents. Defaults to help.SystemViewer.
	Viewer help.Viewer
	// Console receives the root channel's console output. Defaults to stderr.
	Console io.Writer
	// Color enables coloured level names on the console.
	Color bool
	// Clock stamps log lines. Defaults to time.Now.
	Clock func() time.Time
}

// Engine centralizes configuration, logging and world sessions.
type Engine struct {
	registry *logging.Registry
	logger   *logging.Channel
	settings *settings.Store
	help     *help.Resolver
	viewer   help.Viewer

	newClient    ClientFactory
	newScripting ScriptingFactory

	mu         sync.RWMutex
	worlds     map[string]*World
	level      settings.Level
	loaded     bool
	ttsOn      bool
	ttsOutside bool
}

// New creates an engine. A failure to create the log directory or the main
// log file aborts construction.
func New(cfg Config) (*Engine, error) {
	if cfg.LogDir == "" {
		cfg.LogDir = "logs"
	}
	if cfg.DocDir == "" {
		cfg.DocDir = "doc"
	}
	if cfg.Viewer == nil {
		cfg.Viewer = help.SystemViewer{}
	}

	opts := []logging.Option{logging.WithColor(cfg.Color)}
	if cfg.Console != nil {
		opts = append(opts, logging.WithConsole(cfg.Console))
	}
	if cfg.Clock != nil {
		opts = append(opts, logging.WithClock(cfg.Clock))
	}

	registry, err := logging.NewRegistry(cfg.LogDir, opts...)
	if err != nil {
		return nil, err
	}
	root, err := registry.Acquire("")
	if err != nil {
		_ = registry.Close()
		return nil, err
	}

	e := &Engine{
		registry:     registry,
		logger:       root,
		settings:     settings.NewStore(cfg.Backend, settings.Defaults()),
		help:         help.NewResolver(cfg.DocDir, root.With("component", "help")),
		viewer:       cfg.Viewer,
		newClient:    cfg.NewClient,
		newScripting: cfg.NewScriptingEngine,
		worlds:       make(map[string]*World),
		level:        settings.Engine,
	}

	root.Info("CocoMUD engine started")
	return e, nil
}

// Logger returns the root channel.
func (e *Engine) Logger() *logging.Channel {
	return e.logger
}

// Channel returns the named child channel, creating it on first use.
func (e *Engine) Channel(name string) (*logging.Channel, error) {
	return e.registry.Acquire(name)
}

// Settings returns the settings store.
func (e *Engine) Settings() *settings.Store {
	return e.settings
}

// Help returns the help resolver.
func (e *Engine) Help() *help.Resolver {
	return e.help
}

// Level returns the current feature level.
func (e *Engine) Level() settings.Level {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.level
}

// SetLevel changes the current feature level.
func (e *Engine) SetLevel(level settings.Level) error {
	if !level.Valid() {
		return settings.ErrInvalidLevel
	}
	e.mu.Lock()
	e.level = level
	e.mu.Unlock()
	return nil
}

// Load reads the user's configuration, caches the frequently read TTS
// options and attaches the engine to every known world.
func (e *Engine) Load(ctx context.Context) error {
	e.logger.Info("Loading the user's configuration...")

	if err := e.settings.Load(ctx); err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	ttsOn, err := e.settings.Bool(settings.KeyTTSOn)
	if err != nil {
		return err
	}
	ttsOutside, err := e.settings.Bool(settings.KeyTTSOutside)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.ttsOn = ttsOn
	e.ttsOutside = ttsOutside
	e.loaded = true
	for _, w := range e.worlds {
		w.setEngine(e)
	}
	return nil
}

// TTSOn reports the cached options.TTS.on value read by Load.
func (e *Engine) TTSOn() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ttsOn
}

// TTSOutside reports the cached options.TTS.outside value read by Load.
func (e *Engine) TTSOutside() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ttsOutside
}

// AddWorld registers a world. If Load already ran, the world's engine
// reference is set immediately.
func (e *Engine) AddWorld(w *World) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.worlds[w.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateWorld, w.Name)
	}
	e.worlds[w.Name] = w
	if e.loaded {
		w.setEngine(e)
	}
	return nil
}

// World returns the named world.
func (e *Engine) World(name string) (*World, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.worlds[name]
	return w, ok
}

// Worlds returns every known world sorted by name.
func (e *Engine) Worlds() []*World {
	e.mu.RLock()
	worlds := make([]*World, 0, len(e.worlds))
	for _, w := range e.worlds {
		worlds = append(worlds, w)
	}
	e.mu.RUnlock()

	sort.Slice(worlds, func(i, j int) bool { return worlds[i].Name < worlds[j].Name })
	return worlds
}

// RemoveWorld closes the world's session, if any, and forgets the world.
func (e *Engine) RemoveWorld(name string) error {
	e.mu.Lock()
	w, ok := e.worlds[name]
	if ok {
		delete(e.worlds, name)
	}
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrWorldNotFound, name)
	}
	return e.CloseSession(w)
}

// Open creates a client for host:port, builds its scripting engine and
// wires both to w. Nothing is wired if either construction fails.
func (e *Engine) Open(host string, port int, w *World) (Client, error) {
	e.logger.Info("creating client",
		"host", host,
		"port", port,
		"world", w.Name,
	)

	if e.newClient == nil || e.newScripting == nil {
		return nil, ErrNoFactory
	}

	prev, err := w.beginOpen()
	if err != nil {
		return nil, err
	}

	c, err := e.newClient(host, port, e, w)
	if err != nil {
		w.abortOpen(prev)
		e.logger.Error("client construction failed", "world", w.Name, "error", err)
		return nil, fmt.Errorf("creating client: %w", err)
	}

	se, err := e.newScripting(e, c, w)
	if err != nil {
		w.abortOpen(prev)
		if cerr := c.Close(); cerr != nil {
			e.logger.Warn("closing unused client", "world", w.Name, "error", cerr)
		}
		e.logger.Error("scripting engine construction failed", "world", w.Name, "error", err)
		return nil, fmt.Errorf("creating scripting engine: %w", err)
	}

	w.wire(c, se)
	return c, nil
}

// CloseSession closes the scripting engine and client of w and detaches
// them. It is a no-op for a world without an open session.
func (e *Engine) CloseSession(w *World) error {
	c, se, ok := w.unwire()
	if !ok {
		return nil
	}

	e.logger.Info("closing session", "world", w.Name, "host", c.Host(), "port", c.Port())

	var errs []error
	if err := se.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing scripting engine: %w", err))
	}
	if err := c.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing client: %w", err))
	}
	return errors.Join(errs...)
}

// OpenHelp shows the named help document in the user's language, falling
// back to English. Misses and viewer failures are logged, not returned.
func (e *Engine) OpenHelp(name string) {
	lang := e.settings.Language()
	path, ok := e.help.Resolve(name, lang)
	if !ok {
		return
	}
	if err := e.viewer.Open(path); err != nil {
		e.logger.Warn("cannot open help document", "name", name, "path", path, "error", err)
	}
}

// Close closes every open session and then the log registry.
func (e *Engine) Close() error {
	var errs []error
	for _, w := range e.Worlds() {
		if err := e.CloseSession(w); err != nil {
			errs = append(errs, fmt.Errorf("world %s: %w", w.Name, err))
		}
	}
	e.logger.Info("CocoMUD engine stopped")
	if err := e.registry.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
