package realtime

import (
	"github.com/kindredapp/kindred/pkg/logger"
	"github.com/kindredapp/kindred/protocol/wire"
)

// MoodSync is the mood surface handed to UI code.
type MoodSync struct {
	s *Session
}

// Mood returns the mood surface. It is safe to call on a nil Session.
func (s *Session) Mood() MoodSync { return MoodSync{s: s} }

// PartnerMood returns the partner's reconciled mood, or nil before the first
// snapshot.
func (m MoodSync) PartnerMood() *wire.Mood { return m.s.State().PartnerMood }

// MyMood returns our own mood as last reported by the server.
func (m MoodSync) MyMood() *wire.Mood { return m.s.State().MyMood }

// UpdateMood publishes a new mood for the signed-in user.
//
// Local state does not change: callers update their own UI optimistically and
// the server echo arrives as a regular event. Dropped with a warning when not
// connected.
func (m MoodSync) UpdateMood(emoji, label string) {
	m.s.command(wire.EventMoodUpdate, wire.MoodUpdatePayload{Emoji: emoji, Label: label}, true)
}

// RefreshPartnerMood asks the server for a fresh partner mood snapshot.
func (m MoodSync) RefreshPartnerMood() {
	m.s.command(wire.EventMoodGetPartner, nil, false)
}

// OnMoodUpdated registers a mood observer; see Session.OnMoodUpdated.
func (m MoodSync) OnMoodUpdated(fn func(MoodUpdate)) (cancel func()) {
	return m.s.OnMoodUpdated(fn)
}

// Presence is the presence surface handed to UI code.
type Presence struct {
	s *Session
}

// Presence returns the presence surface. It is safe to call on a nil Session.
func (s *Session) Presence() Presence { return Presence{s: s} }

// IsPartnerOnline reports the last known partner presence.
func (p Presence) IsPartnerOnline() bool { return p.s.State().PartnerOnline }

// IsConnected reports whether the reconciled connection state is Connected.
func (p Presence) IsConnected() bool { return p.s.State().IsConnected() }

// RefreshPresence asks the server for the partner's presence.
func (p Presence) RefreshPresence() {
	p.s.command(wire.EventPresenceGetStatus, nil, false)
}

// SendNudge nudges the partner. An empty kind sends the default nudge.
func (p Presence) SendNudge(kind string) {
	p.s.command(wire.EventNudgeSend, wire.NewNudgePayload(kind), true)
}

// Scribbles is the drawing surface handed to UI code.
type Scribbles struct {
	s *Session
}

// Scribbles returns the drawing surface. It is safe to call on a nil Session.
func (s *Session) Scribbles() Scribbles { return Scribbles{s: s} }

// PartnerScribble returns the partner's last drawing, or nil.
func (sc Scribbles) PartnerScribble() *wire.Scribble { return sc.s.State().PartnerScribble }

// LastError returns the last server-reported send failure, cleared by the
// next successful send.
func (sc Scribbles) LastError() *ScribbleError { return sc.s.State().LastScribbleError }

// SendScribble sends a drawing to the partner. Empty drawings are not sent.
func (sc Scribbles) SendScribble(paths []wire.PathSegment) {
	if len(paths) == 0 {
		logger.Debugf("realtime: not sending empty scribble")
		return
	}
	sc.s.command(wire.EventScribbleSend, wire.ScribbleSendPayload{Paths: wire.ClonePaths(paths)}, true)
}

// RefreshScribble asks the server for the partner's latest drawing.
func (sc Scribbles) RefreshScribble() {
	sc.s.command(wire.EventScribbleGetPartner, nil, false)
}

// OnScribbleError registers an observer; see Session.OnScribbleError.
func (sc Scribbles) OnScribbleError(fn func(ScribbleError)) (cancel func()) {
	return sc.s.OnScribbleError(fn)
}
