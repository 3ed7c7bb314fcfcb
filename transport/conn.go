// Package transport provides the shared, self-reconnecting WebSocket
// connection that carries chat traffic to the backend.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/sync/errgroup"

	"github.com/linanwx/nagochat/logger"
)

const (
	defaultDialTimeout    = 10 * time.Second
	defaultMinBackoff     = 500 * time.Millisecond
	defaultMaxBackoff     = 30 * time.Second
	defaultOutboundBuffer = 64
	defaultInboundBuffer  = 64
	stateBufferSize       = 16
	writeTimeout          = 10 * time.Second
	readyPollInterval     = 20 * time.Millisecond
)

var (
	// ErrNotConnected is returned by Send while no connection is established.
	ErrNotConnected = errors.New("transport: not connected")
	// ErrBufferFull is returned by Send when the outbound queue is full.
	ErrBufferFull = errors.New("transport: outbound buffer full")
	// ErrClosed is returned after Stop.
	ErrClosed = errors.New("transport: closed")
)

// State is the connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// Config contains connection settings. Zero values fall back to defaults.
type Config struct {
	URL            string
	Token          string // sent as a bearer token during the handshake
	DialTimeout    time.Duration
	MinBackoff     time.Duration
	MaxBackoff     time.Duration
	OutboundBuffer int
	InboundBuffer  int
	ReadLimit      int64 // 0 keeps the websocket library default
}

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.MinBackoff <= 0 {
		c.MinBackoff = defaultMinBackoff
	}
	if c.MaxBackoff < c.MinBackoff {
		c.MaxBackoff = max(defaultMaxBackoff, c.MinBackoff)
	}
	if c.OutboundBuffer <= 0 {
		c.OutboundBuffer = defaultOutboundBuffer
	}
	if c.InboundBuffer <= 0 {
		c.InboundBuffer = defaultInboundBuffer
	}
	return c
}

// Conn is a WebSocket client that redials with exponential backoff until
// stopped. Send never blocks; it fails fast when the socket is down.
type Conn struct {
	cfg Config

	state  atomic.Int32
	out    chan any
	in     chan Frame
	states chan State

	done     chan struct{}
	wg       sync.WaitGroup
	started  atomic.Bool
	stopOnce sync.Once
}

// New creates an unstarted connection.
func New(cfg Config) *Conn {
	cfg = cfg.withDefaults()
	return &Conn{
		cfg:    cfg,
		out:    make(chan any, cfg.OutboundBuffer),
		in:     make(chan Frame, cfg.InboundBuffer),
		states: make(chan State, stateBufferSize),
		done:   make(chan struct{}),
	}
}

// Start launches the dial/reconnect loop. It returns immediately.
func (c *Conn) Start(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.URL) == "" {
		return fmt.Errorf("transport: empty server url")
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if !c.started.CompareAndSwap(false, true) {
		return nil
	}
	c.wg.Add(1)
	go c.run(ctx)
	return nil
}

// Stop closes the socket, ends the reconnect loop and closes Incoming.
func (c *Conn) Stop() error {
	c.stopOnce.Do(func() {
		close(c.done)
		if c.started.CompareAndSwap(false, true) {
			// Never started: nothing else will close the inbound channel.
			c.setState(StateClosed)
			close(c.in)
			return
		}
		c.wg.Wait()
	})
	return nil
}

// Ready reports whether a socket is currently open.
func (c *Conn) Ready() bool {
	return c.State() == StateConnected
}

// WaitReady blocks until the socket is open, Stop is called or ctx ends.
// It does not consume StateChanges.
func (c *Conn) WaitReady(ctx context.Context) error {
	t := time.NewTicker(readyPollInterval)
	defer t.Stop()
	for {
		if c.Ready() {
			return nil
		}
		select {
		case <-c.done:
			return ErrClosed
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrNotConnected, ctx.Err())
		case <-t.C:
		}
	}
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// StateChanges delivers lifecycle transitions. Slow readers miss transitions,
// State always has the latest value.
func (c *Conn) StateChanges() <-chan State {
	return c.states
}

// Incoming delivers decoded frames from the backend. It is closed after Stop.
func (c *Conn) Incoming() <-chan Frame {
	return c.in
}

// Send queues v to be written as a JSON text message.
func (c *Conn) Send(v any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if !c.Ready() {
		return ErrNotConnected
	}
	select {
	case c.out <- v:
		return nil
	default:
		return ErrBufferFull
	}
}

func (c *Conn) setState(s State) {
	if State(c.state.Swap(int32(s))) == s {
		return
	}
	logger.Debug("connection state changed", "url", c.cfg.URL, "state", s.String())
	select {
	case c.states <- s:
	default:
	}
}

func (c *Conn) run(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.in)
	defer c.setState(StateClosed)

	backoff := c.cfg.MinBackoff
	for {
		if c.closing(ctx) {
			return
		}

		c.setState(StateConnecting)
		ws, err := c.dial(ctx)
		if err != nil {
			c.setState(StateDisconnected)
			if c.closing(ctx) {
				return
			}
			logger.Warn("websocket dial failed", "url", c.cfg.URL, "err", err, "retryIn", backoff)
			if !c.wait(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, c.cfg.MaxBackoff)
			continue
		}

		backoff = c.cfg.MinBackoff
		c.setState(StateConnected)
		logger.Info("websocket connected", "url", c.cfg.URL)

		err = c.serve(ctx, ws)
		c.setState(StateDisconnected)
		if c.closing(ctx) {
			return
		}
		logger.Warn("websocket connection lost", "url", c.cfg.URL, "err", err)
		if !c.wait(ctx, backoff) {
			return
		}
	}
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()

	opts := &websocket.DialOptions{}
	if c.cfg.Token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + c.cfg.Token}}
	}
	ws, _, err := websocket.Dial(dctx, c.cfg.URL, opts)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	if c.cfg.ReadLimit > 0 {
		ws.SetReadLimit(c.cfg.ReadLimit)
	}
	return ws, nil
}

// serve pumps one socket until either direction fails or Stop is called.
func (c *Conn) serve(ctx context.Context, ws *websocket.Conn) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readLoop(gctx, ws) })
	g.Go(func() error { return c.writeLoop(gctx, ws) })
	err := g.Wait()
	_ = ws.CloseNow()
	return err
}

func (c *Conn) readLoop(ctx context.Context, ws *websocket.Conn) error {
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if typ != websocket.MessageText {
			logger.Debug("ignoring binary frame", "bytes", len(data))
			continue
		}
		select {
		case c.in <- DecodeFrame(data):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Conn) writeLoop(ctx context.Context, ws *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			c.flush(ws)
			_ = ws.Close(websocket.StatusNormalClosure, "client closing")
			return ErrClosed
		case v := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, ws, v)
			cancel()
			if err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}

// flush writes whatever was queued before Stop.
func (c *Conn) flush(ws *websocket.Conn) {
	for {
		select {
		case v := <-c.out:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := wsjson.Write(ctx, ws, v)
			cancel()
			if err != nil {
				logger.Debug("flush on close failed", "err", err)
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) closing(ctx context.Context) bool {
	select {
	case <-c.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (c *Conn) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func nextBackoff(cur, limit time.Duration) time.Duration {
	next := cur * 2
	if next > limit {
		return limit
	}
	return next
}
