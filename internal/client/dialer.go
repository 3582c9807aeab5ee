// ABOUTME: Line-oriented transports for world connections over TCP and WebSocket
// ABOUTME: DialerFor picks the transport matching a world's protocol name

package client

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// defaultDialTimeout bounds TCP connection setup.
const defaultDialTimeout = 10 * time.Second

// Conn is an established line-oriented connection.
type Conn interface {
	ReadLine(ctx context.Context) (string, error)
	WriteLine(ctx context.Context, line string) error
	Close() error
}

// Dialer opens connections to a world.
type Dialer interface {
	Dial(ctx context.Context, host string, port int) (Conn, error)
}

// DialerFor returns the dialer for a world protocol.
func DialerFor(protocol string) (Dialer, error) {
	switch strings.ToLower(protocol) {
	case "", "telnet", "tcp":
		return TCPDialer{Timeout: defaultDialTimeout}, nil
	case "ws":
		return WebSocketDialer{}, nil
	case "wss":
		return WebSocketDialer{Secure: true}, nil
	default:
		return nil, fmt.Errorf("unsupported protocol %q", protocol)
	}
}

// TCPDialer connects over plain TCP, one line per CRLF.
type TCPDialer struct {
	Timeout time.Duration
}

// Dial connects to host:port.
func (d TCPDialer) Dial(ctx context.Context, host string, port int) (Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	conn, err := nd.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("dial tcp: %w", err)
	}
	return &tcpConn{conn: conn, r: bufio.NewReader(conn)}, nil
}

type tcpConn struct {
	conn net.Conn
	r    *bufio.Reader
	wmu  sync.Mutex
}

// ReadLine blocks until a full line arrives. Closing the connection unblocks it.
func (c *tcpConn) ReadLine(_ context.Context) (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		if line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *tcpConn) WriteLine(_ context.Context, line string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.conn.Write([]byte(line + "\r\n"))
	return err
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

// WebSocketDialer connects to worlds exposing a WebSocket endpoint.
// Each text message may carry several lines.
type WebSocketDialer struct {
	Secure bool
	// Path is the request path, "/" when empty.
	Path string
}

// Dial opens a WebSocket to host:port.
func (d WebSocketDialer) Dial(ctx context.Context, host string, port int) (Conn, error) {
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   d.Path,
	}
	if d.Secure {
		u.Scheme = "wss"
	}
	if u.Path == "" {
		u.Path = "/"
	}

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn    *websocket.Conn
	pending []string
}

// ReadLine returns the next line, reading a new message when none are buffered.
// Only the read loop calls it, so pending needs no lock.
func (c *wsConn) ReadLine(ctx context.Context) (string, error) {
	for len(c.pending) == 0 {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return "", err
		}
		text := strings.TrimRight(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
		c.pending = strings.Split(text, "\n")
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

func (c *wsConn) WriteLine(ctx context.Context, line string) error {
	return c.conn.Write(ctx, websocket.MessageText, []byte(line))
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
