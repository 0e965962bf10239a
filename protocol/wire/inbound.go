package wire

// PresenceOnlinePayload is the server -> client "presence:online" payload.
type PresenceOnlinePayload struct {
	// UserName is the partner's display name.
	UserName string `json:"userName"`
}

// PresenceStatusPayload is the server -> client "presence:status" payload.
type PresenceStatusPayload struct {
	// IsOnline reports whether the partner currently has a live connection.
	IsOnline bool `json:"isOnline"`
}

// MoodChangedPayload is the server -> client "mood:changed" payload, pushed
// when the partner picks a new mood.
type MoodChangedPayload struct {
	Mood *Mood `json:"mood"`
}

// PartnerMoodPayload is the server -> client "mood:partnerMood" snapshot.
//
// Mood may be null or lack an emoji when the partner never set one.
type PartnerMoodPayload struct {
	Mood     *Mood `json:"mood"`
	IsOnline bool  `json:"isOnline"`
}

// MyMoodPayload is the server -> client "mood:myMood" snapshot.
type MyMoodPayload struct {
	Mood *Mood `json:"mood"`
}

// ScribbleAckPayload is shared by "scribble:sent" and "scribble:error".
type ScribbleAckPayload struct {
	Message string `json:"message"`
}

// PartnerScribblePayload is the server -> client "scribble:partnerScribble"
// snapshot. HasScribble is false when the partner never sent one.
type PartnerScribblePayload struct {
	HasScribble  bool          `json:"hasScribble"`
	Paths        []PathSegment `json:"paths"`
	FromUserName string        `json:"fromUserName"`
	Timestamp    string        `json:"timestamp"`
}

// Scribble returns the snapshot as a Scribble, and false when the snapshot
// carries nothing to show.
func (p PartnerScribblePayload) Scribble() (Scribble, bool) {
	if !p.HasScribble || len(p.Paths) == 0 {
		return Scribble{}, false
	}
	return Scribble{
		Paths:        p.Paths,
		FromUserName: p.FromUserName,
		Timestamp:    p.Timestamp,
	}, true
}
