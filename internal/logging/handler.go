// ABOUTME: slog.Handler that formats records as "HH:MM [LEVEL] message" lines
// ABOUTME: Writes to a channel's sinks and propagates records to ancestor channels

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// SinkKind identifies where a sink writes.
type SinkKind int

const (
	// SinkConsole writes to the console (root channel only).
	SinkConsole SinkKind = iota
	// SinkFile writes to the channel's log file.
	SinkFile
)

// String returns the sink kind name.
func (k SinkKind) String() string {
	switch k {
	case SinkConsole:
		return "console"
	case SinkFile:
		return "file"
	default:
		return "unknown"
	}
}

var levelColors = map[slog.Level]*color.Color{
	slog.LevelDebug: color.New(color.FgHiBlack),
	slog.LevelInfo:  color.New(color.FgGreen),
	slog.LevelWarn:  color.New(color.FgYellow),
	slog.LevelError: color.New(color.FgRed),
}

// sink is a single output with its own severity floor.
type sink struct {
	kind     SinkKind
	level    slog.Level
	path     string
	colorize bool

	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

func newConsoleSink(w io.Writer, colorize bool) *sink {
	return &sink{
		kind:     SinkConsole,
		level:    slog.LevelInfo,
		colorize: colorize,
		w:        w,
	}
}

func newFileSink(path string) (*sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return &sink{
		kind:   SinkFile,
		level:  slog.LevelDebug,
		path:   path,
		w:      f,
		closer: f,
	}, nil
}

func (s *sink) write(stamp, level, message string, lvl slog.Level) {
	if s.colorize {
		if c, ok := levelColors[lvl]; ok {
			level = c.Sprint(level)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return
	}
	// Write errors are dropped: callers never wait on log output.
	_, _ = fmt.Fprintf(s.w, "%s [%s] %s\n", stamp, level, message)
}

func (s *sink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w = nil
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// levelName renders slog levels with the names used in the log files.
func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARNING"
	default:
		return "ERROR"
	}
}

// channelHandler dispatches records to a channel and its ancestors.
type channelHandler struct {
	channel *Channel
	attrs   []slog.Attr
	group   string
}

// Enabled reports whether the channel accepts records at level.
// The channel floor is fixed at DEBUG; sinks filter further.
func (h *channelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelDebug
}

// Handle formats the record once and writes it to every eligible sink.
func (h *channelHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		appendAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.group, a)
		return true
	})
	message := b.String()

	now := h.channel.registry.clock()
	stamp := fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute())
	level := levelName(r.Level)

	for ch := h.channel; ch != nil; ch = ch.registry.parent(ch.name) {
		for _, s := range ch.sinks {
			if r.Level >= s.level {
				s.write(stamp, level, message, r.Level)
			}
		}
	}
	return nil
}

// WithAttrs returns a handler that appends attrs to every record.
func (h *channelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &channelHandler{channel: h.channel, group: h.group}
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return next
}

// WithGroup returns a handler that prefixes record attribute keys with name.
func (h *channelHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &channelHandler{channel: h.channel, attrs: h.attrs, group: group}
}

func appendAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	switch {
	case group != "" && key != "":
		key = group + "." + key
	case key == "":
		key = group
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			appendAttr(b, key, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}
