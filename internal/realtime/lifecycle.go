package realtime

import (
	"fmt"
	"strings"

	"github.com/kindredapp/kindred/pkg/logger"
)

// AppState is the host application's foreground state.
type AppState int

const (
	// AppStateActive means the app is in the foreground.
	AppStateActive AppState = iota
	// AppStateBackground means the app is in the background.
	AppStateBackground
	// AppStateInactive means the app is transitioning or obscured.
	AppStateInactive
)

// String implements fmt.Stringer.
func (a AppState) String() string {
	switch a {
	case AppStateActive:
		return "active"
	case AppStateBackground:
		return "background"
	case AppStateInactive:
		return "inactive"
	default:
		return fmt.Sprintf("appstate(%d)", int(a))
	}
}

// ParseAppState parses "active", "background" or "inactive".
func ParseAppState(raw string) (AppState, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "foreground":
		return AppStateActive, nil
	case "background":
		return AppStateBackground, nil
	case "inactive":
		return AppStateInactive, nil
	default:
		return AppStateActive, fmt.Errorf("unknown app state %q", raw)
	}
}

// AppStateSource delivers app foreground/background transitions.
type AppStateSource interface {
	Subscribe(fn func(AppState)) (cancel func())
}

// AppStateBus is an in-process AppStateSource that hosts publish to.
type AppStateBus struct {
	subs observers[AppState]
}

// Subscribe implements AppStateSource.
func (b *AppStateBus) Subscribe(fn func(AppState)) (cancel func()) {
	return b.subs.add(fn)
}

// Publish delivers state to every subscriber.
func (b *AppStateBus) Publish(state AppState) {
	b.subs.notify(state)
}

// HandleAppState applies an app lifecycle transition.
//
// Coming back to the foreground reconnects, recovering a transport that may
// have dropped while backgrounded. Going to the background keeps the
// transport open so pushes keep arriving.
func (s *Session) HandleAppState(next AppState) {
	if s == nil {
		return
	}

	s.mu.Lock()
	prev := s.appState
	s.appState = next
	closed := s.closed
	s.mu.Unlock()

	if closed || prev == next {
		return
	}
	logger.Debugf("realtime: app state %s -> %s", prev, next)
	if next == AppStateActive {
		s.Connect()
	}
}
