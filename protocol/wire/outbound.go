package wire

// DefaultNudgeType is sent when a caller does not pick a nudge type.
const DefaultNudgeType = "default"

// MoodUpdatePayload is the client -> server payload for "mood:update".
type MoodUpdatePayload struct {
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

// NudgePayload is the client -> server payload for "nudge:send".
type NudgePayload struct {
	// Type selects the nudge animation on the partner's device.
	Type string `json:"type"`
}

// NewNudgePayload builds a nudge, substituting DefaultNudgeType for an empty
// type.
func NewNudgePayload(kind string) NudgePayload {
	if kind == "" {
		kind = DefaultNudgeType
	}
	return NudgePayload{Type: kind}
}

// ScribbleSendPayload is the client -> server payload for "scribble:send".
type ScribbleSendPayload struct {
	Paths []PathSegment `json:"paths"`
}
