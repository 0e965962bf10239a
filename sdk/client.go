// Package sdk is the mobile binding surface of the kindred realtime client.
//
// Exported methods are safe to call from any thread. Values flowing back to
// native code are either plain arguments to Listener callbacks or Buffers.
package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kindredapp/kindred/internal/config"
	"github.com/kindredapp/kindred/internal/realtime"
	"github.com/kindredapp/kindred/internal/storage"
	"github.com/kindredapp/kindred/pkg/logger"
	"github.com/kindredapp/kindred/protocol/wire"
)

const widgetReadTimeout = 5 * time.Second

// Listener receives realtime events. Callbacks run one at a time on a
// dedicated goroutine, never on the caller's thread.
type Listener interface {
	// OnStateChanged receives the full reconciled state as JSON.
	OnStateChanged(stateJSON string)
	// OnMoodUpdated receives every mood event. source is "partner" or "own".
	OnMoodUpdated(source, emoji, label string)
	// OnScribbleError receives server-reported scribble delivery failures.
	OnScribbleError(message string)
}

// Client owns one realtime session and its on-device stores.
type Client struct {
	profile *storage.ProfileStore
	widget  *storage.WidgetStore
	bus     *realtime.AppStateBus
	session *realtime.Session

	dispatch  *dispatcher
	callbacks *dispatcher

	mu       sync.Mutex
	listener Listener
	closed   bool
	cancels  []func()
}

// NewClient creates a client for serverURL storing its state under homeDir.
// Nothing connects until SignIn or Connect.
func NewClient(serverURL, homeDir string) (*Client, error) {
	cfg := config.Default(homeDir)
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newClient(cfg, realtime.SocketDialer(cfg.Socket()))
}

func newClient(cfg *config.Config, dial realtime.Dialer) (*Client, error) {
	if err := os.MkdirAll(cfg.Home, 0700); err != nil {
		return nil, fmt.Errorf("failed to create home: %w", err)
	}
	widget, err := storage.OpenWidgetStore(cfg.WidgetDBPath)
	if err != nil {
		return nil, err
	}

	c := &Client{
		profile:   storage.NewProfileStore(cfg.ProfilePath),
		widget:    widget,
		bus:       &realtime.AppStateBus{},
		dispatch:  newDispatcher(64),
		callbacks: newDispatcher(256),
	}
	c.session, err = realtime.NewSession(realtime.Options{
		Dial:      dial,
		Profile:   c.profile,
		Widget:    widget,
		Lifecycle: c.bus,
	})
	if err != nil {
		widget.Close()
		return nil, err
	}

	c.cancels = append(c.cancels,
		c.session.Subscribe(c.onState),
		c.session.OnMoodUpdated(c.onMood),
		c.session.OnScribbleError(c.onScribbleError),
	)
	return c, nil
}

// notify hands fn the current listener on the callback goroutine. The
// listener is read under mu, but mu is released before queueing: a full
// callback queue blocks only the caller, never SetListener or Close.
func (c *Client) notify(fn func(Listener)) {
	c.mu.Lock()
	l := c.listener
	closed := c.closed
	c.mu.Unlock()

	if closed || l == nil {
		return
	}
	_ = c.callbacks.do(func() { fn(l) })
}

func (c *Client) onState(st realtime.State) {
	raw, err := json.Marshal(st)
	if err != nil {
		logger.Warnf("sdk: failed to encode state: %v", err)
		return
	}
	c.notify(func(l Listener) { l.OnStateChanged(string(raw)) })
}

func (c *Client) onMood(u realtime.MoodUpdate) {
	var emoji, label string
	if u.Mood != nil {
		emoji, label = u.Mood.Emoji, u.Mood.Label
	}
	source := u.Source.String()
	c.notify(func(l Listener) { l.OnMoodUpdated(source, emoji, label) })
}

func (c *Client) onScribbleError(e realtime.ScribbleError) {
	c.notify(func(l Listener) { l.OnScribbleError(e.Message) })
}

// SetListener registers the event listener. A nil listener stops delivery.
func (c *Client) SetListener(listener Listener) {
	_ = c.dispatch.call(func() error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.listener = listener
		return nil
	})
}

// SignIn persists the user's profile and connects as that user.
func (c *Client) SignIn(userID, name, partnerID, partnerName string) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	return c.dispatch.call(func() error {
		err := c.profile.SaveUser(storage.User{
			ID:          userID,
			Name:        name,
			PartnerID:   partnerID,
			PartnerName: partnerName,
		})
		if err != nil {
			return err
		}
		// A different user may have been connected before.
		c.session.Disconnect()
		c.session.Connect()
		return nil
	})
}

// SignOut disconnects and forgets the signed-in user.
func (c *Client) SignOut() error {
	return c.dispatch.call(func() error {
		c.session.Disconnect()
		return c.profile.Clear()
	})
}

// Connect connects as the signed-in user. It is a no-op when signed out or
// already connected.
func (c *Client) Connect() { c.session.Connect() }

// Disconnect tears the connection down and resets all partner state.
func (c *Client) Disconnect() { c.session.Disconnect() }

// SetAppState reports an app lifecycle change: "active", "background" or
// "inactive".
func (c *Client) SetAppState(state string) error {
	next, err := realtime.ParseAppState(state)
	if err != nil {
		return err
	}
	c.bus.Publish(next)
	return nil
}

// IsConnected reports whether the session is connected.
func (c *Client) IsConnected() bool { return c.session.Presence().IsConnected() }

// IsPartnerOnline reports the last known partner presence.
func (c *Client) IsPartnerOnline() bool { return c.session.Presence().IsPartnerOnline() }

// UpdateMood publishes our mood.
func (c *Client) UpdateMood(emoji, label string) { c.session.Mood().UpdateMood(emoji, label) }

// SendNudge nudges the partner. An empty kind sends the default nudge.
func (c *Client) SendNudge(kind string) { c.session.Presence().SendNudge(kind) }

// SendScribbleJSON sends a drawing given as a JSON array of path segments.
func (c *Client) SendScribbleJSON(pathsJSON string) error {
	var paths []wire.PathSegment
	if err := json.Unmarshal([]byte(pathsJSON), &paths); err != nil {
		return fmt.Errorf("invalid scribble paths: %w", err)
	}
	c.session.Scribbles().SendScribble(paths)
	return nil
}

// RefreshPartnerMood asks for a fresh partner mood.
func (c *Client) RefreshPartnerMood() { c.session.Mood().RefreshPartnerMood() }

// RefreshPresence asks for the partner's presence.
func (c *Client) RefreshPresence() { c.session.Presence().RefreshPresence() }

// RefreshScribble asks for the partner's latest drawing.
func (c *Client) RefreshScribble() { c.session.Scribbles().RefreshScribble() }

// StateJSONBuffer returns the reconciled state as JSON.
func (c *Client) StateJSONBuffer() (*Buffer, error) {
	return jsonBuffer(c.session.State())
}

type widgetScribbleJSON struct {
	Paths        []wire.PathSegment `json:"paths"`
	FromUserName string             `json:"fromUserName"`
	Timestamp    string             `json:"timestamp"`
	SavedAtMs    int64              `json:"savedAtMs"`
}

// LatestWidgetScribbleBuffer returns the newest stored scribble as JSON, or
// "null" when none was received yet.
func (c *Client) LatestWidgetScribbleBuffer() (*Buffer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), widgetReadTimeout)
	defer cancel()

	s, err := c.widget.LatestScribble(ctx)
	if err != nil {
		return nil, err
	}
	var v *widgetScribbleJSON
	if s != nil {
		v = &widgetScribbleJSON{
			Paths:        s.Paths,
			FromUserName: s.SenderName,
			Timestamp:    s.Timestamp,
			SavedAtMs:    s.SavedAt.UnixMilli(),
		}
	}
	return jsonBuffer(v)
}

// Close disconnects and releases every resource. Close is idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancels := c.cancels
	c.cancels = nil
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	c.session.Close()
	c.dispatch.stop()
	c.callbacks.stop()
	if err := c.widget.Close(); err != nil {
		logger.Warnf("sdk: failed to close widget store: %v", err)
	}
}
