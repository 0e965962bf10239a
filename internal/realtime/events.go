package realtime

import (
	"time"

	"github.com/kindredapp/kindred/internal/actor"
	"github.com/kindredapp/kindred/protocol/wire"
)

// Inputs produced by the session itself.

// cmdConnecting marks that a new transport was created.
type cmdConnecting struct {
	actor.InputBase
}

// cmdReset returns every entity to its default after teardown.
type cmdReset struct {
	actor.InputBase
}

// Inputs produced by transport events.

type evConnected struct {
	actor.InputBase
}

type evDisconnected struct {
	actor.InputBase
	Reason string
}

type evConnectError struct {
	actor.InputBase
	Err string
}

type evPresenceOnline struct {
	actor.InputBase
	UserName string
}

type evPresenceOffline struct {
	actor.InputBase
}

type evPresenceStatus struct {
	actor.InputBase
	IsOnline bool
}

type evMoodChanged struct {
	actor.InputBase
	Mood *wire.Mood
}

type evPartnerMood struct {
	actor.InputBase
	Mood     *wire.Mood
	IsOnline bool
}

type evMyMood struct {
	actor.InputBase
	Mood *wire.Mood
}

type evScribbleReceived struct {
	actor.InputBase
	Scribble wire.Scribble
}

type evScribbleSent struct {
	actor.InputBase
	Message string
}

type evScribbleError struct {
	actor.InputBase
	Message string
	At      time.Time
}

type evPartnerScribble struct {
	actor.InputBase
	Snapshot wire.PartnerScribblePayload
}
