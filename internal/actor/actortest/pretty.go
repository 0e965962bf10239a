package actortest

import (
	"encoding/json"

	"github.com/davecgh/go-spew/spew"
)

// Pretty returns a readable rendering of v for test failure messages.
//
// JSON is preferred since it is stable for structs; values JSON cannot encode
// fall back to a spew dump.
func Pretty(v any) string {
	if v == nil {
		return "<nil>"
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err == nil {
		return string(data)
	}
	return spew.Sdump(v)
}
