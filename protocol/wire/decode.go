package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload is returned when a socket event does not carry the
// expected payload shape.
var ErrMalformedPayload = errors.New("malformed payload")

// Decode converts the first argument of a Socket.IO event into out.
//
// Socket.IO hands payloads over as loosely typed values (maps, slices,
// float64s), so the value is round-tripped through JSON into the typed struct.
func Decode(args []any, out any) error {
	if len(args) == 0 || args[0] == nil {
		return fmt.Errorf("%w: no payload", ErrMalformedPayload)
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// Reason extracts a disconnect reason from event arguments.
func Reason(args []any) string {
	if len(args) == 0 {
		return ""
	}
	switch v := args[0].(type) {
	case string:
		return v
	case error:
		return v.Error()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
