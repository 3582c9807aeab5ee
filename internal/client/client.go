// ABOUTME: Network client bound to one world and its scripting engine
// ABOUTME: Connects through a Dialer and delivers received lines to handlers

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cocomud/cocomud/internal/engine"
)

var (
	// ErrNotConnected is returned when sending before Connect or after Close.
	ErrNotConnected = errors.New("client not connected")

	// ErrAlreadyConnected is returned by a second Connect.
	ErrAlreadyConnected = errors.New("client already connected")
)

// LineHandler is implemented by scripting engines that react to output.
type LineHandler interface {
	HandleLine(line string)
}

// Client is a connection to a world.
type Client struct {
	host   string
	port   int
	engine *engine.Engine
	world  *engine.World
	dialer Dialer
	logger *slog.Logger

	mu        sync.RWMutex
	scripting engine.ScriptingEngine
	conn      Conn
	onLine    func(string)
	cancel    context.CancelFunc
	done      chan struct{}
	closed    bool
}

// New creates an unconnected client. A nil dialer is chosen from the
// world's protocol.
func New(host string, port int, e *engine.Engine, w *engine.World, dialer Dialer) (*Client, error) {
	if dialer == nil {
		protocol := ""
		if w != nil {
			protocol = w.Protocol
		}
		d, err := DialerFor(protocol)
		if err != nil {
			return nil, err
		}
		dialer = d
	}

	logger := slog.Default()
	if e != nil {
		ch, err := e.Channel("client")
		if err != nil {
			return nil, fmt.Errorf("acquiring client channel: %w", err)
		}
		logger = ch.Logger
	}
	if w != nil {
		logger = logger.With("world", w.Name)
	}

	return &Client{
		host:   host,
		port:   port,
		engine: e,
		world:  w,
		dialer: dialer,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// Factory adapts New to engine.ClientFactory. A nil dialer is chosen per world.
func Factory(dialer Dialer) engine.ClientFactory {
	return func(host string, port int, e *engine.Engine, w *engine.World) (engine.Client, error) {
		return New(host, port, e, w, dialer)
	}
}

// Host returns the remote host.
func (c *Client) Host() string { return c.host }

// Port returns the remote port.
func (c *Client) Port() int { return c.port }

// Engine returns the engine the client was built by.
func (c *Client) Engine() *engine.Engine { return c.engine }

// World returns the world the client connects to.
func (c *Client) World() *engine.World { return c.world }

// ScriptingEngine returns the scripting engine wired to the client.
func (c *Client) ScriptingEngine() engine.ScriptingEngine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scripting
}

// SetScriptingEngine wires the scripting engine. Called by the engine.
func (c *Client) SetScriptingEngine(se engine.ScriptingEngine) {
	c.mu.Lock()
	c.scripting = se
	c.mu.Unlock()
}

// OnLine sets the handler receiving every line read from the world.
func (c *Client) OnLine(fn func(line string)) {
	c.mu.Lock()
	c.onLine = fn
	c.mu.Unlock()
}

// Connect dials the world and starts reading.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.conn != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	c.logger.Info("connecting", "host", c.host, "port", c.port)
	conn, err := c.dialer.Dial(ctx, c.host, c.port)
	if err != nil {
		return fmt.Errorf("connecting to %s:%d: %w", c.host, c.port, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.closed || c.conn != nil {
		c.mu.Unlock()
		cancel()
		_ = conn.Close()
		return ErrAlreadyConnected
	}
	c.conn = conn
	c.cancel = cancel
	c.mu.Unlock()

	go c.readLoop(loopCtx, conn)
	return nil
}

// Done is closed when the read loop stops.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) readLoop(ctx context.Context, conn Conn) {
	defer close(c.done)

	for {
		line, err := conn.ReadLine(ctx)
		if err != nil {
			c.mu.RLock()
			closed := c.closed
			c.mu.RUnlock()
			if !closed {
				c.logger.Info("connection lost", "error", err)
			}
			return
		}

		c.logger.Debug("received", "line", line)

		c.mu.RLock()
		handler := c.onLine
		se := c.scripting
		c.mu.RUnlock()

		if lh, ok := se.(LineHandler); ok {
			lh.HandleLine(line)
		}
		if handler != nil {
			handler(line)
		}
	}
}

// Send writes one line to the world.
func (c *Client) Send(ctx context.Context, text string) error {
	c.mu.RLock()
	conn := c.conn
	closed := c.closed
	c.mu.RUnlock()

	if conn == nil || closed {
		return ErrNotConnected
	}
	if err := conn.WriteLine(ctx, text); err != nil {
		return fmt.Errorf("sending: %w", err)
	}
	c.logger.Debug("sent", "line", text)
	return nil
}

// Close disconnects. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	cancel := c.cancel
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	cancel()
	if err := conn.Close(); err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}
	return nil
}
