package realtime

import (
	"github.com/kindredapp/kindred/internal/actor"
	"github.com/kindredapp/kindred/protocol/wire"
)

// effEmit sends a fire-and-forget event on the live transport.
type effEmit struct {
	actor.EffectBase
	Event   string
	Payload any
}

// effSaveWidget hands a received scribble to the widget store.
type effSaveWidget struct {
	actor.EffectBase
	Scribble wire.Scribble
}

// effNotifyMood fans a mood update out to OnMoodUpdated subscribers.
type effNotifyMood struct {
	actor.EffectBase
	Update MoodUpdate
}

// effNotifyScribbleError fans a scribble failure out to OnScribbleError
// subscribers.
type effNotifyScribbleError struct {
	actor.EffectBase
	Err ScribbleError
}

// MoodSource says whose mood a MoodUpdate refers to.
type MoodSource int

const (
	// MoodSourcePartner is the partner's mood.
	MoodSourcePartner MoodSource = iota
	// MoodSourceOwn is the signed-in user's own mood.
	MoodSourceOwn
)

// String implements fmt.Stringer.
func (s MoodSource) String() string {
	if s == MoodSourceOwn {
		return "own"
	}
	return "partner"
}

// MoodUpdate is delivered to OnMoodUpdated subscribers.
type MoodUpdate struct {
	Source MoodSource
	// Mood is the reconciled mood after the event. It may be nil when the
	// server pushed an empty mood:changed.
	Mood *wire.Mood
}
