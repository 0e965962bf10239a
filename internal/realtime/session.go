// Package realtime keeps the client in sync with the partner through the
// kindred realtime server.
//
// A Session owns at most one transport per signed-in user, reconciles
// inbound events into State on a single actor goroutine, and exposes thin
// command surfaces (Mood, Presence, Scribbles) to UI code. All commands are
// fire-and-forget: their effect, if any, arrives later as inbound events.
//
// A nil *Session is valid and behaves as a permanently disconnected session
// whose commands are no-ops.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kindredapp/kindred/internal/actor"
	"github.com/kindredapp/kindred/internal/storage"
	"github.com/kindredapp/kindred/pkg/logger"
)

// closeSyncTimeout bounds how long Close waits for the reset to apply.
const closeSyncTimeout = time.Second

// ErrNotConnected is returned internally when no transport is live.
var ErrNotConnected = errors.New("realtime: not connected")

// Transport is the subset of the socket client a Session drives.
type Transport interface {
	// On registers an event handler. Called before Connect.
	On(event string, handler func(args ...any))
	// Connect starts the handshake without waiting for it.
	Connect() error
	// Emit sends a one-way event.
	Emit(event string, payload any) error
	// Close tears the transport down; no handler runs afterwards.
	Close() error
	// IsConnected reports whether the handshake completed.
	IsConnected() bool
}

// Dialer creates an unconnected transport authenticated as userID.
type Dialer func(userID string) Transport

// ProfileSource yields the signed-in user, or nil when signed out.
type ProfileSource interface {
	GetUser() (*storage.User, error)
}

// Options configures a Session.
type Options struct {
	// Dial creates transports. Required.
	Dial Dialer
	// Profile supplies the session identity at every Connect. Required.
	Profile ProfileSource
	// Widget receives every partner scribble. Optional.
	Widget WidgetSaver
	// Lifecycle delivers foreground/background transitions. Optional.
	Lifecycle AppStateSource
	// Clock stamps inputs that need wall time. Defaults to the real clock.
	Clock actor.Clock
}

// conn is one transport instance together with its handshake status.
type conn struct {
	tr      Transport
	userID  string
	pending atomic.Bool
}

// Session is the realtime sync provider for one signed-in app instance.
type Session struct {
	dial    Dialer
	profile ProfileSource
	clock   actor.Clock

	actor *actor.Actor[State]
	rt    *effectRuntime

	moods          observers[MoodUpdate]
	scribbleErrors observers[ScribbleError]

	// current is read lock-free by the command and effect paths.
	current atomic.Pointer[conn]

	mu            sync.Mutex
	appState      AppState
	closed        bool
	stopLifecycle func()
	closeOnce     sync.Once
}

// NewSession creates a Session in the Disconnected state. Nothing connects
// until Connect is called or the app becomes active.
func NewSession(opts Options) (*Session, error) {
	if opts.Dial == nil {
		return nil, fmt.Errorf("realtime: dialer is required")
	}
	if opts.Profile == nil {
		return nil, fmt.Errorf("realtime: profile source is required")
	}
	if opts.Clock == nil {
		opts.Clock = actor.RealClock{}
	}

	s := &Session{
		dial:     opts.Dial,
		profile:  opts.Profile,
		clock:    opts.Clock,
		appState: AppStateActive,
	}
	s.rt = newEffectRuntime(s, opts.Widget, &s.moods, &s.scribbleErrors)
	s.actor = actor.New(InitialState(), Reduce, s.rt, actor.WithHooks(actor.Hooks[State]{
		OnInput: func(in actor.Input) {
			logger.Tracef("realtime: reduce %T", in)
		},
		OnPanic: func(r any) {
			logger.Errorf("realtime: panic while reconciling: %v", r)
		},
	}))
	s.actor.Start()

	if opts.Lifecycle != nil {
		s.stopLifecycle = opts.Lifecycle.Subscribe(s.HandleAppState)
	}
	return s, nil
}

// Connect opens a transport for the signed-in user.
//
// It is a no-op when nobody is signed in, and when a transport already
// exists that is connected or still handshaking. A transport that gave up
// (disconnected or errored) is replaced. Connect never blocks on the network.
func (s *Session) Connect() {
	if s == nil {
		return
	}

	user, err := s.profile.GetUser()
	if err != nil {
		logger.Warnf("realtime: failed to read profile: %v", err)
		user = nil
	}
	if user == nil || user.ID == "" {
		logger.Debugf("realtime: no signed-in user, skipping connect")
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	old := s.current.Load()
	if old != nil && (old.pending.Load() || old.tr.IsConnected()) {
		s.mu.Unlock()
		return
	}

	c := &conn{tr: s.dial(user.ID), userID: user.ID}
	c.pending.Store(true)
	s.current.Store(c)
	s.actor.Enqueue(cmdConnecting{})
	s.register(c)
	s.mu.Unlock()

	if old != nil {
		logger.Debugf("realtime: replacing stale transport")
		_ = old.tr.Close()
	}

	logger.Infof("realtime: connecting as %s", user.ID)
	if err := c.tr.Connect(); err != nil {
		logger.Warnf("realtime: connect failed: %v", err)
		c.pending.Store(false)
		s.deliver(c, evConnectError{Err: err.Error()})
	}
}

// Disconnect tears down the live transport and resets every entity to its
// default. It is a no-op without a live transport.
func (s *Session) Disconnect() {
	if s == nil {
		return
	}

	s.mu.Lock()
	c := s.current.Swap(nil)
	if c != nil {
		s.actor.Enqueue(cmdReset{})
	}
	s.mu.Unlock()

	if c == nil {
		return
	}
	if err := c.tr.Close(); err != nil {
		logger.Warnf("realtime: failed to close transport: %v", err)
	}
	logger.Infof("realtime: disconnected")
}

// Close releases the session: it stops listening to lifecycle changes,
// disconnects, and stops the reconciler. Close is idempotent.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		stop := s.stopLifecycle
		s.stopLifecycle = nil
		s.mu.Unlock()

		if stop != nil {
			stop()
		}
		s.Disconnect()

		ctx, cancel := context.WithTimeout(context.Background(), closeSyncTimeout)
		_ = s.actor.Sync(ctx)
		cancel()
		s.actor.Stop()
	})
}

// State returns the current reconciled state.
func (s *Session) State() State {
	if s == nil {
		return InitialState()
	}
	return s.actor.State()
}

// Flush waits until every event received so far has been reconciled.
func (s *Session) Flush(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.actor.Sync(ctx)
}

// Subscribe calls fn with the new state after every change, in event order,
// on the reconciler goroutine. fn must not block.
func (s *Session) Subscribe(fn func(State)) (cancel func()) {
	if s == nil || fn == nil {
		return func() {}
	}
	return s.actor.Observe(func(prev, next State, _ actor.Input) {
		if prev != next {
			fn(next)
		}
	})
}

// OnMoodUpdated registers fn for every mood event (partner pushes, partner
// snapshots and own-mood snapshots). Subscribers are called in registration
// order.
func (s *Session) OnMoodUpdated(fn func(MoodUpdate)) (cancel func()) {
	if s == nil {
		return func() {}
	}
	return s.moods.add(fn)
}

// OnScribbleError registers fn for server-reported scribble failures.
func (s *Session) OnScribbleError(fn func(ScribbleError)) (cancel func()) {
	if s == nil {
		return func() {}
	}
	return s.scribbleErrors.add(fn)
}

// deliver enqueues in if c is still the live transport. Holding mu orders the
// check against Disconnect's reset.
func (s *Session) deliver(c *conn, in actor.Input) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Load() != c {
		logger.Tracef("realtime: dropping %T from a discarded transport", in)
		return
	}
	s.actor.Enqueue(in)
}

// emitRaw sends on the live transport without checking the handshake. It is
// used for snapshot requests issued from the connect event itself.
func (s *Session) emitRaw(event string, payload any) error {
	c := s.current.Load()
	if c == nil {
		return ErrNotConnected
	}
	return c.tr.Emit(event, payload)
}

// command sends a user command. Commands are dropped locally unless both the
// live transport and the reconciled state report a completed handshake; warn
// selects whether a drop is worth a warning.
func (s *Session) command(event string, payload any, warn bool) {
	if s == nil {
		return
	}
	c := s.current.Load()
	if c == nil || !c.tr.IsConnected() || !s.State().IsConnected() {
		if warn {
			logger.Warnf("realtime: not connected, dropping %s", event)
		} else {
			logger.Debugf("realtime: not connected, skipping %s", event)
		}
		return
	}
	if err := c.tr.Emit(event, payload); err != nil {
		logger.Warnf("realtime: failed to send %s: %v", event, err)
	}
}
