package rpc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhubert/cubensis-link/config"
	"github.com/zhubert/cubensis-link/host"
	"github.com/zhubert/cubensis-link/logger"
)

const (
	// HandshakeTimeout bounds the websocket opening handshake.
	HandshakeTimeout = 10 * time.Second

	// WriteTimeout bounds a single frame write so a wedged peer cannot block
	// the command that triggered the send.
	WriteTimeout = 10 * time.Second

	// closeGracePeriod bounds the close frame written by Close.
	closeGracePeriod = time.Second

	ConnectedMessage = "Connection to Cubensis established"
	LostMessage      = "Connection to Cubensis lost"
)

// ErrClosed is returned by WaitOpen once the connection has closed.
var ErrClosed = errors.New("connection closed")

// State is the lifecycle of a Client's single connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for connection events and displayed
// responses.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = d
	}
}

// Client owns one websocket connection to Cubensis. Sends are fire-and-forget;
// inbound frames are decoded and shown through the notifier. Connection
// events and inbound frames are all handled on one goroutine, in the order the
// transport delivers them.
type Client struct {
	url      string
	notifier host.Notifier
	dialer   *websocket.Dialer
	log      *slog.Logger

	state  atomic.Int32
	opened chan struct{} // closed on Connecting -> Open
	done   chan struct{} // closed when the connection goroutine exits

	ctx    context.Context
	cancel context.CancelFunc

	connMu  sync.Mutex // guards conn
	conn    *websocket.Conn
	writeMu sync.Mutex // gorilla allows one concurrent writer
}

// Dial starts connecting to cfg.SocketURL() and returns immediately. The
// outcome is observed through the notifier ("established" or "lost"), State,
// or WaitOpen. There is no reconnection: once closed, a new Client is needed.
func Dial(cfg config.Configuration, notifier host.Notifier, opts ...ClientOption) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		url:      cfg.SocketURL(),
		notifier: notifier,
		dialer:   &websocket.Dialer{HandshakeTimeout: HandshakeTimeout},
		opened:   make(chan struct{}),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.WithComponent("rpc-client")
	}
	c.log = c.log.With("url", c.url)

	go c.run()
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Done is closed once the connection has reached StateClosed and the
// connection goroutine has exited.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// WaitOpen blocks until the connection is open. It returns ErrClosed if the
// connection closed first, or ctx's error.
func (c *Client) WaitOpen(ctx context.Context) error {
	if c.State() == StateClosed {
		return ErrClosed
	}
	select {
	case <-c.opened:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) run() {
	defer close(c.done)

	c.log.Debug("connecting")
	conn, _, err := c.dialer.DialContext(c.ctx, c.url, nil)
	if err != nil {
		c.log.Warn("dial failed", "error", err)
		c.onClose()
		return
	}

	c.connMu.Lock()
	if c.ctx.Err() != nil {
		// Close ran while we were dialing.
		c.connMu.Unlock()
		conn.Close()
		c.onClose()
		return
	}
	c.conn = conn
	c.connMu.Unlock()

	c.onOpen()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("read error", "error", err)
			} else {
				c.log.Debug("read loop ended", "error", err)
			}
			break
		}
		c.onMessage(data)
	}

	conn.Close()
	c.onClose()
}

func (c *Client) onOpen() {
	c.state.Store(int32(StateOpen))
	close(c.opened)
	c.log.Info("connection established")
	c.notifier.Info(ConnectedMessage)
}

// onClose runs exactly once per Client, from run.
func (c *Client) onClose() {
	c.state.Store(int32(StateClosed))
	c.log.Info("connection closed")
	c.notifier.Warn(LostMessage)
}

func (c *Client) onMessage(data []byte) {
	resp, err := Decode(data)
	if err != nil {
		c.log.Warn("dropping malformed frame", "error", err, "bytes", len(data))
		return
	}
	Display(c.log, c.notifier, resp)
}

// SetShaderProject asks Cubensis to load the project at path.
func (c *Client) SetShaderProject(path string, enableHotReload bool) {
	c.Send(SetProjectRequest{ProjectPath: path, EnableHotReload: enableHotReload})
}

// Send writes req as one text frame if the connection is open and does
// nothing otherwise. Nothing is queued and no response is awaited; write
// failures are logged.
func (c *Client) Send(req Request) {
	if state := c.State(); state != StateOpen {
		c.log.Debug("dropping request, connection not open", "kind", req.Kind(), "state", state)
		return
	}

	data, err := Encode(req)
	if err != nil {
		c.log.Error("failed to encode request", "kind", req.Kind(), "error", err)
		return
	}

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.log.Error("write error", "kind", req.Kind(), "error", err)
		return
	}
	c.log.Debug("request sent", "kind", req.Kind(), "bytes", len(data))
}

// Close closes the connection and waits for the connection goroutine to
// finish. The "lost" notification fires if the connection had not already
// closed. Close is idempotent.
func (c *Client) Close() error {
	c.cancel()

	c.connMu.Lock()
	if c.conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		c.conn.Close()
	}
	c.connMu.Unlock()

	<-c.done
	return nil
}

// Dispose implements host.Disposable.
func (c *Client) Dispose() {
	c.Close()
}
