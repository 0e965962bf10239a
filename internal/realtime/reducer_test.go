package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindredapp/kindred/internal/actor"
	"github.com/kindredapp/kindred/internal/actor/actortest"
	"github.com/kindredapp/kindred/protocol/wire"
)

func mood(emoji, label string) *wire.Mood {
	return &wire.Mood{Emoji: emoji, Label: label}
}

func segments(ds ...string) []wire.PathSegment {
	out := make([]wire.PathSegment, 0, len(ds))
	for _, d := range ds {
		out = append(out, wire.PathSegment{D: d, Color: "#000000", StrokeWidth: 3})
	}
	return out
}

func TestReduceConnectedRequestsSnapshots(t *testing.T) {
	state, effects := actor.Replay(InitialState(), Reduce, cmdConnecting{}, evConnected{})

	require.Equal(t, Connected, state.Connection)
	require.Len(t, effects, len(wire.SnapshotRequests))
	for i, event := range wire.SnapshotRequests {
		emit, ok := effects[i].(effEmit)
		require.True(t, ok, "effect %d is %T", i, effects[i])
		assert.Equal(t, event, emit.Event)
		assert.Nil(t, emit.Payload)
	}
}

func TestReduceConnectionTransitions(t *testing.T) {
	state, _ := actor.Replay(InitialState(), Reduce, cmdConnecting{})
	assert.Equal(t, Connecting, state.Connection)

	state, _ = actor.Replay(state, Reduce, evConnectError{Err: "refused"})
	assert.Equal(t, Error, state.Connection)

	state, _ = actor.Replay(state, Reduce, evConnected{}, evDisconnected{Reason: "transport close"})
	assert.Equal(t, Disconnected, state.Connection)
}

func TestReducePresenceLastWriteWins(t *testing.T) {
	tests := []struct {
		name   string
		inputs []actor.Input
		want   bool
	}{
		{"online", []actor.Input{evPresenceOnline{UserName: "Sam"}}, true},
		{"offline after online", []actor.Input{evPresenceOnline{}, evPresenceOffline{}}, false},
		{"status after offline", []actor.Input{evPresenceOffline{}, evPresenceStatus{IsOnline: true}}, true},
		{"offline after status", []actor.Input{evPresenceStatus{IsOnline: true}, evPresenceOffline{}}, false},
		{"status false after online", []actor.Input{evPresenceOnline{}, evPresenceStatus{IsOnline: false}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, _ := actor.Replay(InitialState(), Reduce, tt.inputs...)
			assert.Equal(t, tt.want, state.PartnerOnline)
		})
	}
}

func TestReducePartnerMoodDefaultsWhenMissing(t *testing.T) {
	tests := []struct {
		name string
		mood *wire.Mood
	}{
		{"null mood", nil},
		{"empty emoji", mood("", "Meh")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := InitialState()
			start.PartnerOnline = true

			state, effects := Reduce(start, evPartnerMood{Mood: tt.mood, IsOnline: false})

			def := wire.DefaultPartnerMood()
			require.NotNil(t, state.PartnerMood)
			assert.Equal(t, def, *state.PartnerMood)
			// Presence is left alone when the snapshot has no mood.
			assert.True(t, state.PartnerOnline)

			require.Len(t, effects, 1)
			n := effects[0].(effNotifyMood)
			assert.Equal(t, MoodSourcePartner, n.Update.Source)
			assert.Equal(t, def, *n.Update.Mood)
		})
	}
}

func TestReducePartnerMoodSnapshot(t *testing.T) {
	m := mood("🥰", "Loved")
	state, effects := Reduce(InitialState(), evPartnerMood{Mood: m, IsOnline: true})

	assert.Same(t, m, state.PartnerMood)
	assert.True(t, state.PartnerOnline)
	require.Len(t, effects, 1)
	assert.Equal(t, MoodUpdate{Source: MoodSourcePartner, Mood: m}, effects[0].(effNotifyMood).Update)
}

func TestReduceMoodChangedReplaces(t *testing.T) {
	first, second := mood("😴", "Tired"), mood("🤩", "Excited")
	state, effects := actor.Replay(InitialState(), Reduce,
		evMoodChanged{Mood: first}, evMoodChanged{Mood: second})

	assert.Same(t, second, state.PartnerMood)
	assert.Len(t, effects, 2)

	state, _ = Reduce(state, evMoodChanged{Mood: nil})
	assert.Nil(t, state.PartnerMood)
}

func TestReduceMyMood(t *testing.T) {
	m := mood("😌", "Calm")
	state, effects := Reduce(InitialState(), evMyMood{Mood: m})
	assert.Same(t, m, state.MyMood)
	require.Len(t, effects, 1)
	assert.Equal(t, MoodSourceOwn, effects[0].(effNotifyMood).Update.Source)

	next, effects := Reduce(state, evMyMood{Mood: nil})
	assert.Equal(t, state, next)
	assert.Empty(t, effects)
}

func TestReduceScribbleReplacesWholesale(t *testing.T) {
	first := wire.Scribble{Paths: segments("M0 0", "L1 1"), FromUserName: "Sam", Timestamp: "t1"}
	second := wire.Scribble{Paths: segments("M5 5"), FromUserName: "Sam", Timestamp: "t2"}

	state, effects := actor.Replay(InitialState(), Reduce,
		evScribbleReceived{Scribble: first}, evScribbleReceived{Scribble: second})

	require.NotNil(t, state.PartnerScribble)
	assert.Equal(t, second, *state.PartnerScribble)
	require.Len(t, effects, 2)
	assert.Equal(t, second, effects[1].(effSaveWidget).Scribble)
}

func TestReduceScribbleDoesNotAliasInput(t *testing.T) {
	paths := segments("M0 0")
	state, _ := Reduce(InitialState(), evScribbleReceived{Scribble: wire.Scribble{Paths: paths}})

	paths[0].D = "mutated"
	assert.Equal(t, "M0 0", state.PartnerScribble.Paths[0].D)
}

func TestReducePartnerScribbleSnapshot(t *testing.T) {
	existing := wire.Scribble{Paths: segments("M0 0"), FromUserName: "Sam"}
	start, _ := Reduce(InitialState(), evScribbleReceived{Scribble: existing})

	tests := []struct {
		name     string
		snapshot wire.PartnerScribblePayload
		want     *wire.Scribble
		effects  int
	}{
		{
			name:     "no scribble",
			snapshot: wire.PartnerScribblePayload{HasScribble: false, Paths: segments("M9 9")},
			want:     &existing,
		},
		{
			name:     "empty paths",
			snapshot: wire.PartnerScribblePayload{HasScribble: true},
			want:     &existing,
		},
		{
			name: "replaces",
			snapshot: wire.PartnerScribblePayload{
				HasScribble:  true,
				Paths:        segments("M1 1", "L2 2"),
				FromUserName: "Sam",
				Timestamp:    "2024-05-01T10:00:00Z",
			},
			want: &wire.Scribble{
				Paths:        segments("M1 1", "L2 2"),
				FromUserName: "Sam",
				Timestamp:    "2024-05-01T10:00:00Z",
			},
			effects: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, effects := Reduce(start, evPartnerScribble{Snapshot: tt.snapshot})
			assert.Equal(t, tt.want, state.PartnerScribble)
			assert.Len(t, effects, tt.effects)
		})
	}
}

func TestReduceScribbleErrorClearedBySent(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	state, effects := Reduce(InitialState(), evScribbleError{Message: "partner not paired", At: at})

	require.NotNil(t, state.LastScribbleError)
	assert.Equal(t, ScribbleError{Message: "partner not paired", At: at}, *state.LastScribbleError)
	require.Len(t, effects, 1)
	assert.Equal(t, "partner not paired", effects[0].(effNotifyScribbleError).Err.Message)

	state, effects = Reduce(state, evScribbleSent{Message: "ok"})
	assert.Nil(t, state.LastScribbleError)
	assert.Empty(t, effects)
}

func TestReduceResetRestoresDefaults(t *testing.T) {
	state, _ := actor.Replay(InitialState(), Reduce,
		cmdConnecting{},
		evConnected{},
		evPresenceOnline{},
		evMoodChanged{Mood: mood("🥰", "Loved")},
		evMyMood{Mood: mood("😌", "Calm")},
		evScribbleReceived{Scribble: wire.Scribble{Paths: segments("M0 0")}},
		evScribbleError{Message: "boom"},
	)
	require.NotEqual(t, InitialState(), state)

	state, effects := Reduce(state, cmdReset{})
	assert.Equal(t, InitialState(), state, actortest.Pretty(state))
	assert.Empty(t, effects)
}

func TestConnectionStateJSON(t *testing.T) {
	raw, err := Connecting.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"connecting"`, string(raw))
	assert.Equal(t, "error", Error.String())
}

func TestReduceSnapshotRoundTrip(t *testing.T) {
	rt := &actortest.FakeRuntime{}
	// Answer each snapshot request the way the server does.
	rt.Reply = func(eff actor.Effect) []actor.Input {
		emit, ok := eff.(effEmit)
		if !ok {
			return nil
		}
		switch emit.Event {
		case wire.EventPresenceGetStatus:
			return []actor.Input{evPresenceStatus{IsOnline: true}}
		case wire.EventMoodGetPartner:
			return []actor.Input{evPartnerMood{Mood: mood("🌧️", "Gloomy"), IsOnline: true}}
		case wire.EventMoodGetMyMood:
			return []actor.Input{evMyMood{Mood: mood("☀️", "Sunny")}}
		case wire.EventScribbleGetPartner:
			return []actor.Input{evPartnerScribble{Snapshot: wire.PartnerScribblePayload{
				HasScribble:  true,
				Paths:        segments("M1 1"),
				FromUserName: "Sam",
			}}}
		}
		return nil
	}

	a := actor.New(InitialState(), Reduce, rt)
	a.Start()
	a.Enqueue(cmdConnecting{})
	a.Enqueue(evConnected{})

	require.Eventually(t, func() bool {
		st := a.State()
		return st.PartnerOnline && st.PartnerMood != nil && st.MyMood != nil && st.PartnerScribble != nil
	}, 2*time.Second, 5*time.Millisecond)

	a.Stop()
	require.True(t, rt.Stopped())

	st := a.State()
	assert.Equal(t, Connected, st.Connection)
	assert.Equal(t, mood("🌧️", "Gloomy"), st.PartnerMood)
	assert.Equal(t, mood("☀️", "Sunny"), st.MyMood)
	assert.Equal(t, segments("M1 1"), st.PartnerScribble.Paths)

	effects := rt.Effects()
	var requested []string
	for _, e := range actortest.EffectsOf[effEmit](effects) {
		requested = append(requested, e.Event)
	}
	assert.Equal(t, wire.SnapshotRequests, requested)

	var sources []MoodSource
	for _, e := range actortest.EffectsOf[effNotifyMood](effects) {
		sources = append(sources, e.Update.Source)
	}
	assert.Equal(t, []MoodSource{MoodSourcePartner, MoodSourceOwn}, sources)
	assert.Len(t, actortest.EffectsOf[effSaveWidget](effects), 1)
}
