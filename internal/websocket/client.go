package websocket

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kindredapp/kindred/pkg/logger"
	"github.com/kindredapp/kindred/protocol/wire"
	socket "github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
)

// Transport selects the engine.io transport used for the connection.
type Transport string

const (
	// TransportWebSocket connects straight over websocket.
	TransportWebSocket Transport = "websocket"
	// TransportPolling uses HTTP long-polling.
	TransportPolling Transport = "polling"
)

// ErrNotConnected is returned by Emit when there is no live socket.
var ErrNotConnected = errors.New("not connected")

// ReconnectPolicy configures the Socket.IO manager's built-in reconnection.
// The backoff curve between attempts is owned by the library.
type ReconnectPolicy struct {
	// Enabled turns automatic reconnection on.
	Enabled bool
	// Attempts bounds the number of reconnection attempts.
	Attempts int
	// Delay is the initial delay before the first reconnection attempt.
	Delay time.Duration
	// DelayMax caps the delay between attempts.
	DelayMax time.Duration
}

// DefaultReconnectPolicy returns the policy used by the mobile clients: ten
// attempts starting at one second, capped at five seconds.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		Enabled:  true,
		Attempts: 10,
		Delay:    time.Second,
		DelayMax: 5 * time.Second,
	}
}

// Options configures a Client.
type Options struct {
	// ServerURL is the base URL of the realtime server.
	ServerURL string
	// Path is the Socket.IO endpoint path. Defaults to "/socket.io/".
	Path string
	// UserID is sent as connection-time auth data.
	UserID string
	// Transport is the single preferred transport. Defaults to websocket.
	Transport Transport
	// Reconnect configures automatic reconnection.
	Reconnect ReconnectPolicy
}

// Client is a user-scoped Socket.IO connection.
//
// Handlers are registered with On before Connect, and Connect attaches them
// all before the handshake starts. Once Close is called, no
// registered handler is invoked again, even if the underlying socket still
// delivers buffered packets.
type Client struct {
	opts Options

	mu        sync.RWMutex
	socket    *socket.Socket
	handlers  map[string][]func(args ...any)
	epoch     uint64
	connected bool
	closed    bool
}

// NewClient creates a Client. No network activity happens until Connect.
func NewClient(opts Options) *Client {
	if opts.Path == "" {
		opts.Path = "/socket.io/"
	}
	if opts.Transport == "" {
		opts.Transport = TransportWebSocket
	}
	return &Client{
		opts:     opts,
		handlers: make(map[string][]func(args ...any)),
	}
}

// On registers a handler for an event. Handlers for the same event run in
// registration order on the socket's delivery goroutine.
func (c *Client) On(event string, handler func(args ...any)) {
	if handler == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], handler)
}

// auth is the connection-time authentication payload.
func (c *Client) auth() map[string]any {
	return map[string]any{"userId": c.opts.UserID}
}

func (c *Client) socketOptions() *socket.Options {
	opts := socket.DefaultOptions()
	// Handlers are attached between socket creation and the handshake.
	opts.SetAutoConnect(false)
	// Each Client owns its manager so a replaced transport never shares one.
	opts.SetForceNew(true)
	opts.SetPath(c.opts.Path)
	switch c.opts.Transport {
	case TransportPolling:
		opts.SetTransports(types.NewSet(socket.Polling))
	default:
		opts.SetTransports(types.NewSet(socket.WebSocket))
	}
	opts.SetAuth(c.auth())

	rp := c.opts.Reconnect
	opts.SetReconnection(rp.Enabled)
	if rp.Enabled {
		opts.SetReconnectionAttempts(float64(rp.Attempts))
		opts.SetReconnectionDelay(float64(rp.Delay.Milliseconds()))
		opts.SetReconnectionDelayMax(float64(rp.DelayMax.Milliseconds()))
	}
	return opts
}

// Connect creates the socket, attaches every registered handler and then
// starts the handshake. It returns once the handshake has been started; the
// outcome arrives as "connect" or "connect_error".
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("client closed")
	}
	if c.socket != nil {
		c.mu.Unlock()
		return nil
	}
	epoch := c.epoch
	events := make([]string, 0, len(c.handlers))
	for ev := range c.handlers {
		events = append(events, ev)
	}
	c.mu.Unlock()

	logger.Debugf("socket: connecting to %s (path: %s, transport: %s)",
		c.opts.ServerURL, c.opts.Path, c.opts.Transport)

	sock, err := socket.Connect(c.opts.ServerURL, c.socketOptions())
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	if c.closed || c.epoch != epoch {
		c.mu.Unlock()
		sock.Disconnect()
		return fmt.Errorf("client closed")
	}
	c.socket = sock
	c.mu.Unlock()

	sock.On(types.EventName(wire.EventConnect), func(args ...any) {
		c.setConnected(epoch, true)
		logger.Debugf("socket: connected (id: %s)", sock.Id())
		c.deliver(epoch, wire.EventConnect, args)
	})
	sock.On(types.EventName(wire.EventDisconnect), func(args ...any) {
		c.setConnected(epoch, false)
		logger.Debugf("socket: disconnected: %s", wire.Reason(args))
		c.deliver(epoch, wire.EventDisconnect, args)
	})
	sock.On(types.EventName(wire.EventConnectError), func(args ...any) {
		c.setConnected(epoch, false)
		c.deliver(epoch, wire.EventConnectError, args)
	})

	for _, ev := range events {
		switch ev {
		case wire.EventConnect, wire.EventDisconnect, wire.EventConnectError:
			continue
		}
		event := ev
		sock.On(types.EventName(event), func(args ...any) {
			c.deliver(epoch, event, args)
		})
	}

	sock.Connect()
	return nil
}

func (c *Client) setConnected(epoch uint64, connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch == epoch && !c.closed {
		c.connected = connected
	}
}

// deliver runs the handlers for event if the socket that produced it is still
// the live one.
func (c *Client) deliver(epoch uint64, event string, args []any) {
	c.mu.RLock()
	if c.closed || c.epoch != epoch {
		c.mu.RUnlock()
		logger.Tracef("socket: dropping %s from a closed socket", event)
		return
	}
	handlers := slices.Clone(c.handlers[event])
	c.mu.RUnlock()

	for _, h := range handlers {
		h(args...)
	}
}

// Emit sends a one-way event to the server. No acknowledgment is requested.
func (c *Client) Emit(event string, payload any) error {
	c.mu.RLock()
	sock := c.socket
	c.mu.RUnlock()

	if sock == nil {
		return ErrNotConnected
	}

	logger.Tracef("socket: -> %s", event)
	if payload == nil {
		return sock.Emit(event)
	}
	return sock.Emit(event, payload)
}

// Close tears the socket down. Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	sock := c.socket
	c.socket = nil
	c.connected = false
	c.closed = true
	c.epoch++
	c.mu.Unlock()

	if sock != nil {
		sock.Disconnect()
	}
	return nil
}

// IsConnected reports whether the socket has completed its handshake and has
// not disconnected since.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// String describes the client for logs.
func (c *Client) String() string {
	var b strings.Builder
	b.WriteString("socket(")
	b.WriteString(c.opts.ServerURL)
	b.WriteString(c.opts.Path)
	b.WriteString(")")
	return b.String()
}
