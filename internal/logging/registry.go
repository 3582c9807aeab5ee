// ABOUTME: Registry of hierarchical log channels backed by console and file sinks
// ABOUTME: Channels are created once per physical name and cached for the registry lifetime

package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// RootName is the physical name of the root channel.
	RootName = "cocomud"

	// rootFile is the file written by the root channel.
	rootFile = "main.log"
)

// ErrClosed is returned when acquiring a channel from a closed registry.
var ErrClosed = errors.New("logging registry closed")

// Registry creates and caches log channels.
type Registry struct {
	dir      string
	console  io.Writer
	colorize bool
	clock    func() time.Time

	mu       sync.RWMutex
	channels map[string]*Channel
	closed   bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithConsole sets the writer used by the root channel's console sink.
// Defaults to os.Stderr.
func WithConsole(w io.Writer) Option {
	return func(r *Registry) {
		r.console = w
	}
}

// WithColor enables coloured level names on the console sink.
func WithColor(enabled bool) Option {
	return func(r *Registry) {
		r.colorize = enabled
	}
}

// WithClock overrides the clock used to stamp formatted lines.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// NewRegistry creates a registry writing its files under dir.
// The directory is created if it does not exist.
func NewRegistry(dir string, opts ...Option) (*Registry, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	r := &Registry{
		dir:      dir,
		console:  os.Stderr,
		clock:    time.Now,
		channels: make(map[string]*Channel),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dir returns the directory holding the log files.
func (r *Registry) Dir() string {
	return r.dir
}

// Acquire returns the channel for name, creating it on first use.
// An empty name designates the root channel.
func (r *Registry) Acquire(name string) (*Channel, error) {
	return r.AcquireFile(name, "")
}

// AcquireFile is like Acquire but writes a newly created child channel to
// path instead of <dir>/<name>.log. The override is ignored for the root
// channel and for channels that already exist.
func (r *Registry) AcquireFile(name, path string) (*Channel, error) {
	physical, file := r.resolve(name, path)

	r.mu.RLock()
	ch, ok := r.channels[physical]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if ok {
		return ch, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	// Another goroutine may have created it while we waited for the lock.
	if ch, ok := r.channels[physical]; ok {
		return ch, nil
	}

	ch, err := r.newChannel(physical, file)
	if err != nil {
		return nil, err
	}
	r.channels[physical] = ch
	return ch, nil
}

// resolve maps a logical channel name to its physical name and file.
func (r *Registry) resolve(name, path string) (string, string) {
	if name == "" {
		return RootName, filepath.Join(r.dir, rootFile)
	}
	if path == "" {
		path = filepath.Join(r.dir, name+".log")
	}
	return RootName + "." + name, path
}

// newChannel builds a channel and its sinks. Must be called with mu held.
func (r *Registry) newChannel(physical, file string) (*Channel, error) {
	ch := &Channel{
		name:     physical,
		path:     file,
		registry: r,
	}

	if physical == RootName {
		ch.sinks = append(ch.sinks, newConsoleSink(r.console, r.colorize))
	}

	fs, err := newFileSink(file)
	if err != nil {
		return nil, fmt.Errorf("creating channel %s: %w", physical, err)
	}
	ch.sinks = append(ch.sinks, fs)

	ch.Logger = slog.New(&channelHandler{channel: ch})
	return ch, nil
}

// parent returns the nearest registered ancestor of the named channel.
func (r *Registry) parent(name string) *Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for {
		idx := strings.LastIndex(name, ".")
		if idx < 0 {
			return nil
		}
		name = name[:idx]
		if ch, ok := r.channels[name]; ok {
			return ch
		}
	}
}

// Channels returns the physical names of every channel created so far.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	return names
}

// Close closes every file sink. Channels already handed out keep working
// but their file output is discarded.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, ch := range r.channels {
		for _, s := range ch.sinks {
			if err := s.close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s: %w", ch.name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Channel is a named logger with its own sinks.
type Channel struct {
	*slog.Logger

	name     string
	path     string
	sinks    []*sink
	registry *Registry
}

// Name returns the physical channel name, e.g. "cocomud.sharp".
func (c *Channel) Name() string {
	return c.name
}

// Path returns the file written by the channel's file sink.
func (c *Channel) Path() string {
	return c.path
}

// SinkInfo describes one sink attached to a channel.
type SinkInfo struct {
	Kind  SinkKind
	Level slog.Level
	Path  string
}

// Sinks describes the sinks owned by the channel, excluding ancestors.
func (c *Channel) Sinks() []SinkInfo {
	infos := make([]SinkInfo, len(c.sinks))
	for i, s := range c.sinks {
		infos[i] = SinkInfo{Kind: s.kind, Level: s.level, Path: s.path}
	}
	return infos
}
