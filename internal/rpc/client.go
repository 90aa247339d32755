package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/roach88/presence/internal/event"
)

const (
	// ReconnectInitialInterval is the first delay after a failed connection.
	ReconnectInitialInterval = time.Second
	// ReconnectMaxInterval caps the delay between connection attempts.
	ReconnectMaxInterval = 30 * time.Second
	// DefaultReplyTimeout bounds how long a command waits for its reply.
	DefaultReplyTimeout = 5 * time.Second
)

// Handler is invoked when the external process reports an event.
// Handlers run on the client's read goroutine; they must not block.
type Handler func(ev event.Event, data json.RawMessage)

// dispatchEvents maps DISPATCH evt names to events.
var dispatchEvents = map[string]event.Event{
	evtReady:                event.Ready,
	evtError:                event.Error,
	"ACTIVITY_JOIN":         event.ActivityJoin,
	"ACTIVITY_SPECTATE":     event.ActivitySpectate,
	"ACTIVITY_JOIN_REQUEST": event.ActivityJoinRequest,
}

// subscriptions are requested after every READY.
var subscriptions = []string{"ACTIVITY_JOIN", "ACTIVITY_SPECTATE", "ACTIVITY_JOIN_REQUEST"}

// Dialer opens a connection to the external process.
type Dialer func(ctx context.Context) (net.Conn, error)

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the IPC socket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dial = d
	}
}

// WithNonceGenerator replaces the UUIDv7 nonce generator.
func WithNonceGenerator(g NonceGenerator) Option {
	return func(c *Client) {
		c.nonces = g
	}
}

// WithBackOff sets the reconnect policy. The factory is called once per Start.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = factory
	}
}

// WithReplyTimeout bounds how long SetActivity waits for a reply.
func WithReplyTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.replyTimeout = d
	}
}

// WithPID sets the process id reported with SET_ACTIVITY (default os.Getpid()).
func WithPID(pid int) Option {
	return func(c *Client) {
		c.pid = pid
	}
}

// Client is a presence client speaking the local IPC protocol.
//
// Thread-safety model:
//   - OnEvent, SetActivity, ClearActivity, Connected, Close: safe from any goroutine
//   - Start: safe from any goroutine; only the first call has an effect
//   - Handlers: invoked on the connection goroutine, never under a client lock
type Client struct {
	clientID     uint64
	dial         Dialer
	nonces       NonceGenerator
	newBackOff   func() backoff.BackOff
	replyTimeout time.Duration
	pid          int

	mu       sync.Mutex // protects everything below
	handlers map[event.Event][]Handler
	conn     net.Conn
	ready    bool
	pending  map[string]chan message // keyed by nonce
	started  bool
	closed   bool
	cancel   context.CancelFunc
	done     chan struct{}

	writeMu sync.Mutex // serializes frame writes
}

// New creates a client for the application registered under clientID.
// The connection is not opened until Start.
func New(clientID uint64, opts ...Option) *Client {
	c := &Client{
		clientID:     clientID,
		dial:         DialSocket,
		nonces:       UUIDGenerator{},
		newBackOff:   defaultBackOff,
		replyTimeout: DefaultReplyTimeout,
		pid:          os.Getpid(),
		handlers:     make(map[event.Event][]Handler),
		pending:      make(map[string]chan message),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = ReconnectInitialInterval
	b.MaxInterval = ReconnectMaxInterval
	b.MaxElapsedTime = 0 // keep trying for the client's lifetime
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return b
}

// OnEvent registers h for ev. Multiple handlers per event run in
// registration order.
func (c *Client) OnEvent(ev event.Event, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[ev] = append(c.handlers[ev], h)
}

// Start begins the connection lifecycle in the background and returns
// immediately. The client reconnects until ctx is done or Close is called.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(ctx)
}

// Connected reports whether a ready connection exists.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// SetActivity validates a and submits it, waiting for the reply.
//
// Returns ErrNotConnected if no ready connection exists, a *ValidationError
// if a breaks a limit, or an *Error if the external process rejected it.
func (c *Client) SetActivity(ctx context.Context, a Activity) error {
	if err := Validate(a); err != nil {
		return err
	}
	normalized := Normalize(a)
	return c.setActivity(ctx, &normalized)
}

// ClearActivity removes the presence.
func (c *Client) ClearActivity(ctx context.Context) error {
	return c.setActivity(ctx, nil)
}

func (c *Client) setActivity(ctx context.Context, a *Activity) error {
	nonce := c.nonces.Generate()
	payload, err := encodeSetActivity(nonce, c.pid, a)
	if err != nil {
		return err
	}

	reply, err := c.call(ctx, nonce, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", cmdSetActivity, err)
	}
	if reply.Evt == evtError {
		return decodeError(reply.Data)
	}
	return nil
}

// Close stops the connection goroutine and waits for it to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if conn != nil {
		// Best effort: the peer may already be gone.
		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = c.write(conn, OpClose, []byte("{}"))
	}
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// call sends a command and waits for the reply carrying the same nonce.
func (c *Client) call(ctx context.Context, nonce string, payload []byte) (message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return message{}, ErrClosed
	}
	conn := c.conn
	if conn == nil || !c.ready {
		c.mu.Unlock()
		return message{}, ErrNotConnected
	}
	reply := make(chan message, 1)
	c.pending[nonce] = reply
	c.mu.Unlock()

	if err := c.write(conn, OpFrame, payload); err != nil {
		c.forget(nonce)
		return message{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.replyTimeout)
	defer cancel()

	select {
	case msg, ok := <-reply:
		if !ok {
			return message{}, ErrNotConnected
		}
		return msg, nil
	case <-ctx.Done():
		c.forget(nonce)
		return message{}, fmt.Errorf("await reply: %w", ctx.Err())
	}
}

func (c *Client) forget(nonce string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, nonce)
}

func (c *Client) write(conn net.Conn, op Opcode, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeFrame(conn, op, payload)
}

// emit runs the handlers registered for ev outside the client lock.
func (c *Client) emit(ev event.Event, data json.RawMessage) {
	c.mu.Lock()
	handlers := append([]Handler(nil), c.handlers[ev]...)
	c.mu.Unlock()

	for _, h := range handlers {
		h(ev, data)
	}
}

// run is the connection goroutine: connect, serve, back off, repeat.
func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	b := c.newBackOff()
	for {
		wasReady, err := c.serve(ctx)
		if ctx.Err() != nil {
			slog.Debug("rpc client stopped")
			return
		}
		if wasReady {
			b.Reset()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			slog.Error("rpc client giving up", "error", err)
			return
		}
		slog.Warn("rpc connection unavailable", "error", err, "retry_in", wait)

		select {
		case <-ctx.Done():
			slog.Debug("rpc client stopped")
			return
		case <-time.After(wait):
		}
	}
}

// serve runs one connection from dial to disconnect. Reports whether the
// connection reached READY, so the caller can reset its backoff.
func (c *Client) serve(ctx context.Context) (bool, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	if err := c.handshake(conn); err != nil {
		return false, err
	}
	c.emit(event.Connected, nil)

	readyData, err := c.awaitReady(conn)
	if err != nil {
		c.emit(event.Disconnected, nil)
		return false, err
	}

	c.mu.Lock()
	c.conn = conn
	c.ready = true
	c.mu.Unlock()
	slog.Info("rpc connection ready", "client_id", c.clientID)
	// Emitted after ready is set so a submission prompted by Ready can go out.
	c.emit(event.Ready, readyData)

	c.subscribe(conn)
	err = c.readLoop(conn)

	c.mu.Lock()
	c.conn = nil
	c.ready = false
	for nonce, reply := range c.pending {
		close(reply)
		delete(c.pending, nonce)
	}
	c.mu.Unlock()

	c.emit(event.Disconnected, nil)
	return true, err
}

func (c *Client) handshake(conn net.Conn) error {
	payload, err := json.Marshal(handshake{V: 1, ClientID: strconv.FormatUint(c.clientID, 10)})
	if err != nil {
		return fmt.Errorf("encode handshake: %w", err)
	}
	if err := c.write(conn, OpHandshake, payload); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	return nil
}

// awaitReady reads frames until READY arrives or the peer refuses us, and
// returns the READY payload.
func (c *Client) awaitReady(conn net.Conn) (json.RawMessage, error) {
	for {
		op, payload, err := readFrame(conn)
		if err != nil {
			return nil, fmt.Errorf("await ready: %w", err)
		}
		switch op {
		case OpClose:
			c.emit(event.Error, payload)
			return nil, decodeError(payload)
		case OpPing:
			if err := c.write(conn, OpPong, payload); err != nil {
				return nil, err
			}
		case OpFrame:
			var msg message
			if err := json.Unmarshal(payload, &msg); err != nil {
				return nil, fmt.Errorf("await ready: decode frame: %w", err)
			}
			if msg.Evt == evtError {
				c.emit(event.Error, msg.Data)
				return nil, decodeError(msg.Data)
			}
			if msg.Cmd == cmdDispatch && msg.Evt == evtReady {
				return msg.Data, nil
			}
			slog.Debug("rpc frame before ready ignored", "cmd", msg.Cmd, "evt", msg.Evt)
		}
	}
}

// subscribe asks for the join/spectate dispatches. Replies are matched by
// the read loop and otherwise ignored.
func (c *Client) subscribe(conn net.Conn) {
	for _, evt := range subscriptions {
		payload, err := encodeSubscribe(c.nonces.Generate(), evt)
		if err != nil {
			slog.Warn("rpc subscribe failed", "evt", evt, "error", err)
			continue
		}
		if err := c.write(conn, OpFrame, payload); err != nil {
			slog.Warn("rpc subscribe failed", "evt", evt, "error", err)
			return
		}
	}
}

func (c *Client) readLoop(conn net.Conn) error {
	for {
		op, payload, err := readFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("connection closed: %w", err)
			}
			return err
		}

		switch op {
		case OpFrame:
			c.dispatch(payload)
		case OpPing:
			if err := c.write(conn, OpPong, payload); err != nil {
				return err
			}
		case OpPong:
		case OpClose:
			c.emit(event.Error, payload)
			return decodeError(payload)
		default:
			slog.Warn("rpc unexpected opcode", "opcode", op)
		}
	}
}

func (c *Client) dispatch(payload []byte) {
	var msg message
	if err := json.Unmarshal(payload, &msg); err != nil {
		slog.Warn("rpc frame decode failed", "error", err)
		return
	}

	if msg.Nonce != "" {
		c.mu.Lock()
		reply, ok := c.pending[msg.Nonce]
		delete(c.pending, msg.Nonce)
		c.mu.Unlock()
		if ok {
			reply <- msg
		}
	}

	if msg.Evt == evtError {
		c.emit(event.Error, msg.Data)
		return
	}
	if msg.Cmd != cmdDispatch {
		return
	}
	if ev, ok := dispatchEvents[msg.Evt]; ok {
		c.emit(ev, msg.Data)
		return
	}
	slog.Debug("rpc dispatch ignored", "evt", msg.Evt)
}

func decodeError(data []byte) error {
	var ed errorData
	if err := json.Unmarshal(data, &ed); err != nil {
		return &Error{Code: -1, Message: string(data)}
	}
	return &Error{Code: ed.Code, Message: ed.Message}
}
