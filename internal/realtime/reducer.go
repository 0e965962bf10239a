package realtime

import (
	"github.com/kindredapp/kindred/internal/actor"
	"github.com/kindredapp/kindred/protocol/wire"
)

// Reduce applies one input to the reconciled state.
//
// Every field is last-write-wins: the most recent event touching a field
// replaces its value. Reduce is pure; side-effects are returned as effects.
func Reduce(state State, input actor.Input) (State, []actor.Effect) {
	switch ev := input.(type) {
	case cmdConnecting:
		state.Connection = Connecting
		return state, nil

	case cmdReset:
		return InitialState(), nil

	case evConnected:
		state.Connection = Connected
		// Never trust state held from before this connection.
		effects := make([]actor.Effect, 0, len(wire.SnapshotRequests))
		for _, event := range wire.SnapshotRequests {
			effects = append(effects, effEmit{Event: event})
		}
		return state, effects

	case evDisconnected:
		state.Connection = Disconnected
		return state, nil

	case evConnectError:
		state.Connection = Error
		return state, nil

	case evPresenceOnline:
		state.PartnerOnline = true
		return state, nil

	case evPresenceOffline:
		state.PartnerOnline = false
		return state, nil

	case evPresenceStatus:
		state.PartnerOnline = ev.IsOnline
		return state, nil

	case evMoodChanged:
		state.PartnerMood = ev.Mood
		return state, []actor.Effect{notifyMood(MoodSourcePartner, state.PartnerMood)}

	case evPartnerMood:
		if ev.Mood.HasEmoji() {
			state.PartnerMood = ev.Mood
			state.PartnerOnline = ev.IsOnline
		} else {
			def := wire.DefaultPartnerMood()
			state.PartnerMood = &def
		}
		return state, []actor.Effect{notifyMood(MoodSourcePartner, state.PartnerMood)}

	case evMyMood:
		if ev.Mood == nil {
			return state, nil
		}
		state.MyMood = ev.Mood
		return state, []actor.Effect{notifyMood(MoodSourceOwn, state.MyMood)}

	case evScribbleReceived:
		return receiveScribble(state, ev.Scribble)

	case evPartnerScribble:
		s, ok := ev.Snapshot.Scribble()
		if !ok {
			return state, nil
		}
		return receiveScribble(state, s)

	case evScribbleSent:
		state.LastScribbleError = nil
		return state, nil

	case evScribbleError:
		err := ScribbleError{Message: ev.Message, At: ev.At}
		state.LastScribbleError = &err
		return state, []actor.Effect{effNotifyScribbleError{Err: err}}

	default:
		return state, nil
	}
}

// receiveScribble replaces the partner scribble wholesale; there is no
// history and no merge with the previous drawing.
func receiveScribble(state State, s wire.Scribble) (State, []actor.Effect) {
	s.Paths = wire.ClonePaths(s.Paths)
	state.PartnerScribble = &s
	return state, []actor.Effect{effSaveWidget{Scribble: s}}
}

func notifyMood(source MoodSource, mood *wire.Mood) actor.Effect {
	return effNotifyMood{Update: MoodUpdate{Source: source, Mood: mood}}
}
