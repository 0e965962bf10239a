package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// DefaultMoodEmoji is shown for a partner that has not picked a mood yet.
	DefaultMoodEmoji = "😊"
	// DefaultMoodLabel pairs with DefaultMoodEmoji.
	DefaultMoodLabel = "Happy"
)

// Mood is a user's current mood as stored by the server.
type Mood struct {
	// Emoji is the mood glyph, e.g. "😊".
	Emoji string `json:"emoji"`
	// Label is the human readable mood name.
	Label string `json:"label"`
	// UpdatedAt is when the mood was last set. Nil for placeholder moods.
	UpdatedAt *time.Time `json:"updatedAt"`
}

// DefaultPartnerMood returns the placeholder used when the server reports
// that the partner has no mood set.
func DefaultPartnerMood() Mood {
	return Mood{Emoji: DefaultMoodEmoji, Label: DefaultMoodLabel}
}

// HasEmoji reports whether m is set and carries an emoji.
func (m *Mood) HasEmoji() bool {
	return m != nil && m.Emoji != ""
}

// UnmarshalJSON accepts updatedAt as an RFC 3339 string, a millisecond epoch
// number, or null.
func (m *Mood) UnmarshalJSON(data []byte) error {
	var tmp struct {
		Emoji     string          `json:"emoji"`
		Label     string          `json:"label"`
		UpdatedAt json.RawMessage `json:"updatedAt"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	at, err := parseTimestamp(tmp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("mood updatedAt: %w", err)
	}
	m.Emoji = tmp.Emoji
	m.Label = tmp.Label
	m.UpdatedAt = at
	return nil
}

func parseTimestamp(raw json.RawMessage) (*time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return &t, nil
		}
		// Some clients stringify the epoch.
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unrecognized timestamp %q", s)
		}
		t := time.UnixMilli(ms).UTC()
		return &t, nil
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return nil, fmt.Errorf("unrecognized timestamp %s", string(raw))
	}
	t := time.UnixMilli(int64(ms)).UTC()
	return &t, nil
}
