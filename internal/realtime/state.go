package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kindredapp/kindred/protocol/wire"
)

// ConnectionState is the transport's lifecycle as observed by the client.
type ConnectionState int

const (
	// Disconnected is the initial state and the state after teardown or a
	// transport disconnect.
	Disconnected ConnectionState = iota
	// Connecting is set when a transport is created, before the handshake.
	Connecting
	// Connected is set on the transport's connect event.
	Connected
	// Error is set on connect_error. The transport keeps retrying on its own.
	Error
)

// String implements fmt.Stringer.
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("connection(%d)", int(s))
	}
}

// MarshalJSON encodes the state by name.
func (s ConnectionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ScribbleError records the last server-reported failure to deliver one of
// our scribbles.
type ScribbleError struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// State is the reconciled view of the partner and of our own mood.
//
// Pointer fields are shared with every reader and must be treated as
// immutable; the reducer always replaces them rather than mutating in place.
type State struct {
	Connection        ConnectionState `json:"connection"`
	PartnerOnline     bool            `json:"partnerOnline"`
	PartnerMood       *wire.Mood      `json:"partnerMood"`
	MyMood            *wire.Mood      `json:"myMood"`
	PartnerScribble   *wire.Scribble  `json:"partnerScribble"`
	LastScribbleError *ScribbleError  `json:"lastScribbleError"`
}

// InitialState is the state at mount and after teardown.
func InitialState() State {
	return State{Connection: Disconnected}
}

// IsConnected reports whether the transport has completed its handshake.
func (s State) IsConnected() bool {
	return s.Connection == Connected
}
